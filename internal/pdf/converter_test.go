package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMandalaHTML(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	html, err := MandalaHTML(data, "Lucía <Pérez>")
	require.NoError(t, err)

	assert.Contains(t, html, `src="data:image/png;base64,`+base64.StdEncoding.EncodeToString(data)+`"`)
	assert.Contains(t, html, "Carta Astral con Capas - Lucía &lt;Pérez&gt;")
	assert.Contains(t, html, "@page { size: A4; margin: 0; }")
	assert.NotContains(t, html, "ZgotmplZ", "data URI must not be filtered")
}

func TestNewConverter_Defaults(t *testing.T) {
	c := NewConverter(Options{}, nil)
	assert.Equal(t, 60*time.Second, c.opts.Timeout)
	assert.NoError(t, c.Close(), "closing an unused converter is a no-op")
}

func TestMandalaPDF_Chrome(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no local Chrome")
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 30))))

	c := NewConverter(Options{ChromePath: bin, Timeout: 30 * time.Second}, nil)
	defer c.Close()

	pdf, err := c.MandalaPDF(context.Background(), buf.Bytes(), "Test")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"), "output should be a PDF")
}

type fakeSession struct {
	browser *rod.Browser
	alive   bool
	closed  int
}

func (s *fakeSession) Browser() *rod.Browser { return s.browser }
func (s *fakeSession) Alive() bool           { return s.alive }
func (s *fakeSession) Close() error {
	s.closed++
	return errors.New("connection already gone")
}

func TestEnsureBrowser_Lifecycle(t *testing.T) {
	var launched []*fakeSession
	c := NewConverter(Options{}, nil)
	c.launch = func(string) (session, error) {
		s := &fakeSession{browser: rod.New(), alive: true}
		launched = append(launched, s)
		return s, nil
	}

	first, err := c.ensureBrowser()
	require.NoError(t, err)
	again, err := c.ensureBrowser()
	require.NoError(t, err)
	assert.Same(t, first, again, "a live browser is reused")
	require.Len(t, launched, 1)

	launched[0].alive = false
	relaunched, err := c.ensureBrowser()
	require.NoError(t, err)
	require.Len(t, launched, 2)
	assert.NotSame(t, first, relaunched)
	assert.Equal(t, 1, launched[0].closed, "stale process is torn down before relaunch")

	assert.Error(t, c.Close())
	assert.Equal(t, 1, launched[1].closed)
	assert.NoError(t, c.Close(), "second close is a no-op")
}

func TestEnsureBrowser_LaunchFailure(t *testing.T) {
	c := NewConverter(Options{}, nil)
	c.launch = func(string) (session, error) { return nil, errors.New("no chrome") }

	_, err := c.ensureBrowser()
	assert.ErrorContains(t, err, "no chrome")
	assert.NoError(t, c.Close())
}
