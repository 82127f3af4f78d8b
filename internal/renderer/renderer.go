// Package renderer composites the natal-chart mandala: background, base and
// detail rings, zodiac and planet glyphs and the personal text blocks, into a
// single PNG. Recoverable asset failures are reported on the Result instead
// of aborting the render.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/cosmikids/mandala/internal/chart"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEssentialAsset is returned when the background or a ring layer cannot be loaded.
var ErrEssentialAsset = errors.New("essential asset unavailable")

// Options contains the layout tunables of a render
type Options struct {
	RotationOffset float64 // degrees, shared by zodiac and planet glyphs
	SymbolRadius   float64
	NameRadius     float64
	SymbolScale    float64
	NearThreshold  float64 // degrees
	RadiusStep     float64 // px
	MandalaLift    float64 // px the ring is raised above the canvas center
	Country        string
}

// DefaultOptions returns the calibrated layout used for print.
func DefaultOptions() Options {
	return Options{
		RotationOffset: chart.DefaultRotationOffset,
		SymbolRadius:   chart.DefaultSymbolRadius,
		NameRadius:     chart.DefaultNameRadius,
		SymbolScale:    0.9,
		NearThreshold:  chart.DefaultNearThreshold,
		RadiusStep:     chart.DefaultRadiusStep,
		MandalaLift:    400,
		Country:        "España",
	}
}

// Asset layers a SkippedAsset can belong to.
const (
	LayerSignSymbol  = "sign-symbol"
	LayerSignName    = "sign-name"
	LayerPlanet      = "planet"
	LayerSummaryIcon = "summary-icon"
)

// SkippedAsset records a glyph or icon that could not be drawn.
type SkippedAsset struct {
	Layer string
	Asset string
	Err   error
}

func (s SkippedAsset) String() string {
	return fmt.Sprintf("%s %s: %v", s.Layer, s.Asset, s.Err)
}

// Result is the outcome of one render.
type Result struct {
	PNG          []byte
	Width        int
	Height       int
	Planets      []chart.PlanetPlacement
	Skipped      []SkippedAsset
	SkippedSteps []string
}

// Renderer draws mandalas. It holds only read-only state and is safe for
// concurrent use; each Render owns its canvas, faces and decoded images.
type Renderer struct {
	assets *Assets
	fonts  *FontSet
	opts   Options
	logger *zap.Logger
}

// New creates a Renderer. A nil FontSet renders with the embedded Go fonts.
func New(assets *Assets, fonts *FontSet, opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fonts == nil {
		fonts, _ = LoadFonts(nil, nil, logger)
	}
	return &Renderer{
		assets: assets,
		fonts:  fonts,
		opts:   opts,
		logger: logger,
	}
}

// Options returns the layout options in use.
func (r *Renderer) Options() Options { return r.opts }

type baseLayers struct {
	background image.Image
	base       image.Image
	detail     image.Image
}

// loadBaseLayers loads background, base ring and detail ring concurrently.
func (r *Renderer) loadBaseLayers(ctx context.Context) (*baseLayers, error) {
	layout := r.assets.Layout()
	layers := &baseLayers{}

	g, gctx := errgroup.WithContext(ctx)
	load := func(dst *image.Image, name string) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := r.assets.Image(name)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrEssentialAsset, err)
			}
			*dst = img
			return nil
		})
	}
	load(&layers.background, layout.Background)
	load(&layers.base, layout.BaseRing)
	load(&layers.detail, layout.DetailRing)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

// Render draws the mandala for personal and horoscope. Steps run in a fixed
// order:
//  1. Load the three base layers (concurrently) and paint the background.
//  2. Composite the base ring and the centered detail ring.
//  3. Draw name, birth date and place.
//  4. Draw the zodiac ring glyphs (needs 12 houses).
//  5. Draw planet glyphs (needs planets and an Ascendant).
//  6. Draw the Sun / Moon / Ascendant summary and the personal sentence.
//
// The context is checked between steps. Only a missing base layer is fatal.
func (r *Renderer) Render(ctx context.Context, personal chart.PersonalData, horoscope *chart.Horoscope) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layers, err := r.loadBaseLayers(ctx)
	if err != nil {
		return nil, err
	}

	faces, err := r.fonts.newFaceSet()
	if err != nil {
		return nil, err
	}
	defer faces.Close()

	c := newCanvas(layers.background)
	res := &Result{
		Width:  c.img.Bounds().Dx(),
		Height: c.img.Bounds().Dy(),
	}
	job := &renderJob{
		r:      r,
		canvas: c,
		faces:  faces,
		result: res,
	}

	baseW, baseH := size(layers.base)
	mandalaX := (c.width() - baseW) / 2
	mandalaY := (c.height()-baseH)/2 - r.opts.MandalaLift
	c.drawImage(layers.base, mandalaX, mandalaY)

	detW, detH := size(layers.detail)
	c.drawImage(layers.detail, mandalaX+(baseW-detW)/2, mandalaY+(baseH-detH)/2)

	job.drawPersonalInfo(personal)

	geom := chart.Geometry{
		CX:             mandalaX + baseW/2,
		CY:             mandalaY + baseW/2,
		RotationOffset: r.opts.RotationOffset,
		SymbolRadius:   r.opts.SymbolRadius,
		NameRadius:     r.opts.NameRadius,
		NearThreshold:  r.opts.NearThreshold,
		RadiusStep:     r.opts.RadiusStep,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job.drawZodiacSigns(geom, horoscope)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job.drawPlanets(geom, horoscope)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job.drawSummary(personal)

	data, err := c.encode()
	if err != nil {
		return nil, err
	}
	res.PNG = data

	if len(res.Skipped) > 0 {
		r.logger.Info("mandala rendered with skipped assets", zap.Int("skipped", len(res.Skipped)))
	}
	return res, nil
}

// renderJob is the per-call state of one render
type renderJob struct {
	r      *Renderer
	canvas *canvas
	faces  *faceSet
	result *Result
}

func (j *renderJob) skip(layer, asset string, err error) {
	j.result.Skipped = append(j.result.Skipped, SkippedAsset{Layer: layer, Asset: asset, Err: err})
	j.r.logger.Warn("asset skipped",
		zap.String("layer", layer),
		zap.String("asset", asset),
		zap.Error(err))
}

func (j *renderJob) skipStep(step string) {
	j.result.SkippedSteps = append(j.result.SkippedSteps, step)
	j.r.logger.Debug("render step skipped", zap.String("step", step))
}

const quarterTurn = math.Pi / 2
