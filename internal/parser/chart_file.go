// Package parser reads chart documents from disk for the CLI and the
// file-based render paths.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cosmikids/mandala/internal/chart"
)

// ErrNoChartData is returned when a document carries neither planets nor houses.
var ErrNoChartData = errors.New("no chart data found")

// ChartFile is a parsed chart document. Personal is nil when the document
// is a bare provider response.
type ChartFile struct {
	Personal  *chart.PersonalData
	Horoscope *chart.Horoscope
}

// renderDocument wraps a provider response together with the text block,
// the same body the mandala endpoint accepts.
type renderDocument struct {
	Personal  *chart.PersonalData `json:"personal,omitempty"`
	Horoscope json.RawMessage     `json:"horoscope,omitempty"`
}

// ParseChartFile reads and parses a chart document.
// It respects the provided context for cancellation.
func ParseChartFile(ctx context.Context, path string) (*ChartFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}
	return ParseChart(data)
}

// ParseChart parses either a render document ({"personal", "horoscope"}) or
// a bare provider response.
func ParseChart(data []byte) (*ChartFile, error) {
	var doc renderDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse chart file: %w", err)
	}

	// Determine which layout we're dealing with
	payload := data
	if len(bytes.TrimSpace(doc.Horoscope)) > 0 {
		payload = doc.Horoscope
	}

	h, err := chart.ParseHoroscope(payload)
	if err != nil {
		return nil, err
	}
	if len(h.Planets) == 0 && len(h.Houses) == 0 {
		return nil, ErrNoChartData
	}

	return &ChartFile{Personal: doc.Personal, Horoscope: h}, nil
}

// PersonalFor returns the document's text block, or derives one from the
// chart and the given birth details when the document has none.
func (f *ChartFile) PersonalFor(b chart.Birth) chart.PersonalData {
	if f.Personal != nil {
		return *f.Personal
	}
	return chart.PersonalDataFor(b, f.Horoscope)
}
