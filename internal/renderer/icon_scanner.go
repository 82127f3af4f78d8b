package renderer

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/cosmikids/mandala/internal/chart"
)

// AssetReport lists which expected artwork files exist under the asset root.
type AssetReport struct {
	Present          []string
	Missing          []string
	MissingEssential []string
	Unused           []string // image files under the glyph folders nobody references
}

// OK reports whether a render can succeed at all.
func (r AssetReport) OK() bool {
	return len(r.MissingEssential) == 0
}

// Complete reports whether every expected file is present.
func (r AssetReport) Complete() bool {
	return len(r.Missing) == 0
}

// ExpectedAssets returns every file a full render may read, essential
// layers first.
func ExpectedAssets(a *Assets) (essential, optional []string) {
	layout := a.Layout()
	essential = []string{layout.Background, layout.BaseRing, layout.DetailRing}

	for _, s := range chart.Signs {
		stem, _ := chart.RingGlyphName(s.String())
		optional = append(optional, a.SignSymbolPath(stem), a.SignNamePath(stem))
	}
	for _, b := range chart.Bodies {
		optional = append(optional, a.PlanetPath(b.GlyphFile()))
	}
	for _, s := range chart.Signs {
		stem, _ := chart.SummaryIconName(s.String())
		optional = append(optional, a.SummaryIconPath(stem))
	}

	fontKeys := make([]string, 0, len(layout.Fonts))
	for k := range layout.Fonts {
		fontKeys = append(fontKeys, k)
	}
	sort.Strings(fontKeys)
	for _, k := range fontKeys {
		optional = append(optional, layout.Fonts[k])
	}
	return essential, optional
}

// ScanAssets checks the asset root against the expected file list and walks
// the glyph folders for image files that are never referenced.
func ScanAssets(a *Assets) (AssetReport, error) {
	var report AssetReport
	fsys := a.FS()

	essential, optional := ExpectedAssets(a)
	expected := make(map[string]bool, len(essential)+len(optional))

	check := func(name string, isEssential bool) {
		expected[name] = true
		if _, err := fs.Stat(fsys, name); err != nil {
			report.Missing = append(report.Missing, name)
			if isEssential {
				report.MissingEssential = append(report.MissingEssential, name)
			}
			return
		}
		report.Present = append(report.Present, name)
	}
	for _, name := range essential {
		check(name, true)
	}
	for _, name := range optional {
		check(name, false)
	}

	layout := a.Layout()
	for _, dir := range []string{layout.SignDir, layout.PlanetDir, layout.SummaryDir} {
		files, err := findImageFiles(fsys, dir)
		if err != nil {
			return report, err
		}
		for _, f := range files {
			if !expected[f] {
				report.Unused = append(report.Unused, f)
			}
		}
	}
	sort.Strings(report.Unused)

	return report, nil
}

// findImageFiles recursively finds PNG and JPEG files in a directory
func findImageFiles(fsys fs.FS, dir string) ([]string, error) {
	var files []string

	if _, err := fs.Stat(fsys, dir); err != nil {
		return nil, nil
	}

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(path.Ext(p)) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, p)
		}
		return nil
	})

	return files, err
}
