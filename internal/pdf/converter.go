// Package pdf prints report pages to PDF with a headless Chrome.
package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// A4 in inches
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// Options configures the browser
type Options struct {
	ChromePath string        // empty means a Chrome found on PATH or downloaded by rod
	Timeout    time.Duration // per print
}

// Converter prints HTML to PDF. The browser is launched on first use and
// shared; every print gets its own tab.
type Converter struct {
	opts   Options
	logger *zap.Logger
	launch func(chromePath string) (session, error)

	mu      sync.Mutex
	session session
}

// session is one launched browser process and the connection to it.
type session interface {
	Browser() *rod.Browser
	Alive() bool
	// Close disconnects, kills the process and removes its profile dir.
	Close() error
}

type chromeSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func (s *chromeSession) Browser() *rod.Browser { return s.browser }

func (s *chromeSession) Alive() bool {
	_, err := s.browser.Version()
	return err == nil
}

func (s *chromeSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

func launchChrome(chromePath string) (session, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("disable-gpu"))
	if chromePath != "" {
		l = l.Bin(chromePath)
	}

	// no Cleanup here: it waits for a process that may never have started
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	return &chromeSession{launcher: l, browser: browser}, nil
}

// NewConverter creates a converter. Nothing is launched until the first print.
func NewConverter(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Converter{opts: opts, logger: logger, launch: launchChrome}
}

var mandalaPage = template.Must(template.New("mandala").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8">
    <title>Carta Astral con Capas - {{.Title}}</title>
    <style>
      @page { size: A4; margin: 0; }
      html, body { margin: 0; padding: 0; width: 100vw; height: 100vh; overflow: hidden; }
      .mandala { width: 100%; height: 100%; display: flex; justify-content: center; align-items: center; }
      .mandala img { width: 100%; height: 100%; object-fit: cover; }
    </style>
  </head>
  <body>
    <div class="mandala">
      <img src="{{.Image}}" alt="Carta Astral con Capas">
    </div>
  </body>
</html>
`))

// MandalaHTML returns the full-bleed page embedding the PNG as a data URI.
func MandalaHTML(png []byte, title string) (string, error) {
	var buf bytes.Buffer
	err := mandalaPage.Execute(&buf, struct {
		Title string
		Image template.URL
	}{
		Title: title,
		Image: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build mandala page: %w", err)
	}
	return buf.String(), nil
}

// MandalaPDF prints the mandala PNG onto a single A4 page with no margins.
func (c *Converter) MandalaPDF(ctx context.Context, png []byte, title string) ([]byte, error) {
	html, err := MandalaHTML(png, title)
	if err != nil {
		return nil, err
	}
	return c.Print(ctx, html)
}

// Print renders an HTML document to an A4 PDF with backgrounds.
func (c *Converter) Print(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	browser, err := c.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to set page content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      num(a4Width),
		PaperHeight:     num(a4Height),
		MarginTop:       num(0),
		MarginBottom:    num(0),
		MarginLeft:      num(0),
		MarginRight:     num(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print PDF: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return data, nil
}

func (c *Converter) ensureBrowser() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		if c.session.Alive() {
			return c.session.Browser(), nil
		}
		c.logger.Warn("stale browser connection, relaunching")
		if err := c.session.Close(); err != nil {
			c.logger.Debug("closing stale browser", zap.Error(err))
		}
		c.session = nil
	}

	sess, err := c.launch(c.opts.ChromePath)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.logger.Info("chrome launched")
	return sess.Browser(), nil
}

// Close shuts the browser down.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func num(v float64) *float64 { return &v }
