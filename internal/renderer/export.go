package renderer

import (
	"context"
	"fmt"

	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/validation"
)

// ExportPNG renders a mandala and writes it to outputPath.
func (r *Renderer) ExportPNG(ctx context.Context, personal chart.PersonalData, horoscope *chart.Horoscope, outputPath string) (*Result, error) {
	// Check context before starting
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := validation.ValidateOutputPath(outputPath); err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}

	res, err := r.Render(ctx, personal, horoscope)
	if err != nil {
		return nil, err
	}

	if err := writeFile(outputPath, res.PNG); err != nil {
		return nil, fmt.Errorf("failed to write PNG: %w", err)
	}
	return res, nil
}
