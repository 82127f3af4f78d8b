// Package report turns birth data into a delivered report: chart, mandala
// PNG, PDF and email. It also drives the Shopify order flow around it.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cosmikids/mandala/internal/astrology"
	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/interfaces"
	"github.com/cosmikids/mandala/internal/mailer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRequest is returned when required birth or contact data is missing.
var ErrInvalidRequest = errors.New("invalid report request")

// Request is the birth and contact data of one report.
type Request struct {
	Day           int     `json:"day"`
	Month         int     `json:"month"`
	Year          int     `json:"year"`
	Hour          int     `json:"hour"`
	Min           int     `json:"min"`
	Lat           float64 `json:"lat,omitempty"`
	Lon           float64 `json:"lon,omitempty"`
	TZone         float64 `json:"tzone,omitempty"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	BirthPlace    string  `json:"birthPlace,omitempty"`
	BirthProvince string  `json:"birthProvince,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// Validate checks the fields every report needs.
func (r Request) Validate() error {
	var missing []string
	if r.Day == 0 {
		missing = append(missing, "day")
	}
	if r.Month == 0 {
		missing = append(missing, "month")
	}
	if r.Year == 0 {
		missing = append(missing, "year")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidRequest, r.Month)
	}
	if r.Day < 1 || r.Day > 31 {
		return fmt.Errorf("%w: day %d out of range", ErrInvalidRequest, r.Day)
	}
	return nil
}

func (r Request) birthData() astrology.BirthData {
	return astrology.BirthData{
		Day: r.Day, Month: r.Month, Year: r.Year,
		Hour: r.Hour, Min: r.Min,
		Lat: r.Lat, Lon: r.Lon, TZone: r.TZone,
	}
}

func (r Request) birth() chart.Birth {
	return chart.Birth{
		Name:          r.Name,
		Day:           r.Day,
		Month:         r.Month,
		Year:          r.Year,
		BirthPlace:    r.BirthPlace,
		BirthProvince: r.BirthProvince,
	}
}

// Result is a generated report.
type Result struct {
	ID         uuid.UUID
	ZodiacSign string // Spanish sun sign, upper-cased
	EmailSent  bool
	PNG        []byte
	PDF        []byte
	Skipped    []string // assets and steps the renderer had to leave out
}

// Deps are the collaborators of a Generator. Mailer may be nil.
type Deps struct {
	Horoscopes interfaces.HoroscopeProvider
	Renderer   interfaces.ChartRenderer
	PDF        interfaces.PDFConverter
	Mailer     interfaces.ReportMailer
	GuideDir   string // directory of the static per-sign guide PDFs
}

// Generator produces reports. It is safe for concurrent use when its
// dependencies are.
type Generator struct {
	deps   Deps
	logger *zap.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(deps Deps, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{deps: deps, logger: logger}
}

// Generate runs the full pipeline for one request: chart, personal data,
// mandala, PDF and email. A mail failure fails the report so the caller
// can retry it.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{ID: uuid.New()}
	logger := g.logger.With(zap.String("report_id", res.ID.String()), zap.String("name", req.Name))

	h, err := g.deps.Horoscopes.WesternHoroscope(ctx, req.birthData())
	if err != nil {
		return nil, fmt.Errorf("failed to compute chart: %w", err)
	}

	sign := chart.SunSign(h)
	res.ZodiacSign = strings.ToUpper(sign)
	personal := chart.PersonalDataFor(req.birth(), h)

	rendered, err := g.deps.Renderer.Render(ctx, personal, h)
	if err != nil {
		return nil, fmt.Errorf("failed to render mandala: %w", err)
	}
	res.PNG = rendered.PNG
	for _, s := range rendered.Skipped {
		res.Skipped = append(res.Skipped, s.String())
	}
	res.Skipped = append(res.Skipped, rendered.SkippedSteps...)

	res.PDF, err = g.deps.PDF.MandalaPDF(ctx, rendered.PNG, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to print mandala: %w", err)
	}

	logger.Info("report generated",
		zap.String("sign", res.ZodiacSign),
		zap.Int("png_bytes", len(res.PNG)),
		zap.Int("pdf_bytes", len(res.PDF)),
		zap.Int("skipped", len(res.Skipped)))

	if g.deps.Mailer == nil {
		return res, nil
	}

	res.EmailSent, err = g.deps.Mailer.SendReport(ctx, mailer.Report{
		To:         req.Email,
		Name:       req.Name,
		ZodiacSign: res.ZodiacSign,
		GuidePDF:   g.guide(sign, logger),
		MandalaPDF: res.PDF,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to email report: %w", err)
	}
	return res, nil
}

// guide loads the static guide PDF for a sign; nil when unavailable.
func (g *Generator) guide(sign string, logger *zap.Logger) []byte {
	if g.deps.GuideDir == "" {
		return nil
	}
	path := filepath.Join(g.deps.GuideDir, chart.GuideFileName(sign)+".pdf")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("sign guide unavailable, sending mandala only", zap.String("path", path), zap.Error(err))
		return nil
	}
	return data
}
