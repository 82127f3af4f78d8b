package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeApp(t, nil, args...)
	return out, err
}

// executeApp runs the CLI and returns the app so callers can inspect
// cleanup. setup, when set, runs before the command.
func executeApp(t *testing.T, setup func(*app), args ...string) (string, *app, error) {
	t.Helper()
	var out bytes.Buffer
	cmd, a := newRootCmd()
	if setup != nil {
		setup(a)
	}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := run(context.Background(), cmd, a)
	return out.String(), a, err
}

// writeConfig points the asset root at dir. extra is appended verbatim.
func writeConfig(t *testing.T, dir string, extra ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mandala.hcl")
	content := "assets {\n  dir = \"" + filepath.ToSlash(dir) + "\"\n}\n" + strings.Join(extra, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestAssetsCheck(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())
	cfg := writeConfig(t, dir)

	out, err := execute(t, "--config", cfg, "assets", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Present:")
	assert.Contains(t, out, "Missing: fonts/", "the synthetic tree has no fonts")
}

func TestAssetsCheck_MissingEssential(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())
	testutil.RemoveAsset(t, dir, "fondos/base mandala.png")
	cfg := writeConfig(t, dir)

	out, err := execute(t, "--config", cfg, "assets", "check")
	assert.ErrorContains(t, err, "1 essential assets missing")
	assert.Contains(t, out, "Missing: fondos/base mandala.png")
}

func TestRender(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())
	cfg := writeConfig(t, dir)

	doc, err := json.Marshal(map[string]interface{}{
		"personal":  testutil.Personal(),
		"horoscope": testutil.Horoscope(),
	})
	require.NoError(t, err)
	chartPath := filepath.Join(t.TempDir(), "chart.json")
	require.NoError(t, os.WriteFile(chartPath, doc, 0o644))

	output := filepath.Join(t.TempDir(), "out.png")
	out, err := execute(t, "--config", cfg, "render", "--chart", chartPath, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+output)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, testutil.BackgroundWidth, img.Bounds().Dx())
	assert.Equal(t, testutil.BackgroundHeight, img.Bounds().Dy())
}

func TestRender_BareHoroscopeUsesFlags(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())
	cfg := writeConfig(t, dir)

	doc, err := json.Marshal(testutil.Horoscope())
	require.NoError(t, err)
	chartPath := filepath.Join(t.TempDir(), "horoscope.json")
	require.NoError(t, os.WriteFile(chartPath, doc, 0o644))

	output := filepath.Join(t.TempDir(), "out.png")
	_, err = execute(t, "--config", cfg, "render", "--chart", chartPath,
		"--name", "Ana", "--day", "1", "--month", "2", "--year", "2020", "-o", output)
	require.NoError(t, err)
	assert.FileExists(t, output)
}

func TestRender_Errors(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())
	cfg := writeConfig(t, dir)

	emptyChart := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(emptyChart, []byte(`{"planets": []}`), 0o644))

	goodChart := filepath.Join(t.TempDir(), "chart.json")
	data, err := json.Marshal(&chart.Horoscope{Houses: testutil.Horoscope().Houses})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(goodChart, data, 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing chart flag",
			args:    []string{"render"},
			wantErr: "required flag",
		},
		{
			name:    "chart does not exist",
			args:    []string{"render", "--chart", filepath.Join(t.TempDir(), "nope.json")},
			wantErr: "does not exist",
		},
		{
			name:    "empty chart",
			args:    []string{"render", "--chart", emptyChart, "-o", filepath.Join(t.TempDir(), "x.png")},
			wantErr: "no chart data",
		},
		{
			name:    "wrong extension",
			args:    []string{"render", "--chart", goodChart, "-o", filepath.Join(t.TempDir(), "x.jpg")},
			wantErr: "unsupported file extension",
		},
		{
			name:    "traversal",
			args:    []string{"render", "--chart", goodChart, "-o", "../../x.png"},
			wantErr: "path traversal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfg}, tt.args...)...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte("layout {\n  radius_step = -1\n}\n"), 0o644))

	_, err := execute(t, "--config", bad, "assets", "check")
	assert.ErrorContains(t, err, "radius_step")
}

func TestProcess_InvalidSince(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())
	cfg := writeConfig(t, dir)

	_, err := execute(t, "--config", cfg, "process", "--since", "yesterday")
	assert.ErrorContains(t, err, "invalid --since")
}

func TestRun_ClosesOnFailure(t *testing.T) {
	dir := testutil.WriteAssets(t, t.TempDir())

	t.Run("failing render", func(t *testing.T) {
		cfg := writeConfig(t, dir)
		closed := false
		_, a, err := executeApp(t, func(a *app) {
			a.onClose(func() error { closed = true; return nil })
		}, "--config", cfg, "render", "--chart", filepath.Join(t.TempDir(), "nope.json"))

		require.Error(t, err)
		assert.True(t, closed)
		assert.Empty(t, a.closers)
	})

	t.Run("failing process", func(t *testing.T) {
		ledger := filepath.Join(t.TempDir(), "ledger.db")
		cfg := writeConfig(t, dir, "store {\n  path = \""+filepath.ToSlash(ledger)+"\"\n}\n")

		_, a, err := executeApp(t, nil, "--config", cfg, "process")
		require.Error(t, err, "shopify is not configured")
		assert.Empty(t, a.closers, "ledger and browser closers must run")
		assert.FileExists(t, ledger)
	})
}
