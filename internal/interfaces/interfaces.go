// Package interfaces defines interfaces for dependency injection and testing
package interfaces

import (
	"context"
	"time"

	"github.com/cosmikids/mandala/internal/astrology"
	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/mailer"
	"github.com/cosmikids/mandala/internal/renderer"
	"github.com/cosmikids/mandala/internal/shopify"
	"github.com/cosmikids/mandala/internal/store"
)

// HoroscopeProvider computes natal charts
type HoroscopeProvider interface {
	// WesternHoroscope returns the chart for a birth moment and place
	WesternHoroscope(ctx context.Context, b astrology.BirthData) (*chart.Horoscope, error)
}

// ChartRenderer draws mandalas
type ChartRenderer interface {
	// Render composites the mandala PNG for one chart
	Render(ctx context.Context, personal chart.PersonalData, horoscope *chart.Horoscope) (*renderer.Result, error)
}

// PDFConverter prints a mandala PNG to PDF
type PDFConverter interface {
	MandalaPDF(ctx context.Context, png []byte, title string) ([]byte, error)
}

// ReportMailer delivers finished reports
type ReportMailer interface {
	// SendReport returns false without error when mail is disabled
	SendReport(ctx context.Context, r mailer.Report) (bool, error)
}

// OrderSource lists and annotates shop orders
type OrderSource interface {
	ListOrders(ctx context.Context, since time.Time, limit int) ([]shopify.Order, error)
	AnnotateOrder(ctx context.Context, id int64, note string) error
}

// OrderLedger remembers which orders already got their report
type OrderLedger interface {
	IsProcessed(ctx context.Context, orderID string) (bool, error)

	// MarkProcessed returns store.ErrAlreadyProcessed for a known order
	MarkProcessed(ctx context.Context, o store.ProcessedOrder) error
}
