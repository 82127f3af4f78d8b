package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cosmikids/mandala/internal/interfaces"
	"github.com/cosmikids/mandala/internal/shopify"
	"github.com/cosmikids/mandala/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Order outcomes
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

const (
	reasonNoBirthData       = "Sin datos de nacimiento"
	reasonAlreadyProcessed  = "Orden ya procesada"
	defaultOrderConcurrency = 2
)

// OrderResult is the outcome of one order.
type OrderResult struct {
	OrderID      int64  `json:"orderId"`
	OrderName    string `json:"orderName"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	ZodiacSign   string `json:"zodiacSign,omitempty"`
	EmailSent    bool   `json:"emailSent"`
}

// Summary counts the outcomes of a run.
type Summary struct {
	TotalOrders int `json:"totalOrders"`
	NewOrders   int `json:"newOrders"`
	Processed   int `json:"processed"`
	Success     int `json:"success"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}

// Run is the outcome of one polling pass.
type Run struct {
	Since   time.Time     `json:"since"`
	Summary Summary       `json:"summary"`
	Results []OrderResult `json:"results"`
}

// ProcessorOptions tunes order processing.
type ProcessorOptions struct {
	FallbackEmail string        // recipient when an order has no address
	Lookback      time.Duration // window used when no since is given
	Limit         int           // orders per poll
	Concurrency   int           // orders generated in parallel
}

// Processor turns paid Shopify orders into delivered reports, exactly once
// per order.
type Processor struct {
	orders interfaces.OrderSource
	ledger interfaces.OrderLedger
	gen    *Generator
	opts   ProcessorOptions
	logger *zap.Logger
	now    func() time.Time
}

// NewProcessor creates an order processor.
func NewProcessor(orders interfaces.OrderSource, ledger interfaces.OrderLedger, gen *Generator, opts ProcessorOptions, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultOrderConcurrency
	}
	return &Processor{
		orders: orders,
		ledger: ledger,
		gen:    gen,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// ProcessOrders lists orders created since the given time (the lookback
// window when zero), skips those already in the ledger and processes the
// rest. limit <= 0 uses the configured limit. Per-order failures are
// reported in the run; only a failed listing is returned as an error.
func (p *Processor) ProcessOrders(ctx context.Context, since time.Time, limit int) (*Run, error) {
	if since.IsZero() {
		since = p.now().Add(-p.opts.Lookback)
	}
	if limit <= 0 {
		limit = p.opts.Limit
	}

	orders, err := p.orders.ListOrders(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	run := &Run{Since: since}
	run.Summary.TotalOrders = len(orders)

	var pending []*shopify.Order
	for i := range orders {
		o := &orders[i]
		done, err := p.ledger.IsProcessed(ctx, o.IDString())
		if err != nil {
			run.Results = append(run.Results, errorResult(o, err))
			continue
		}
		if !done {
			pending = append(pending, o)
		}
	}
	run.Summary.NewOrders = len(pending) + len(run.Results)

	results := make([]OrderResult, len(pending))
	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrency)
	for i, o := range pending {
		g.Go(func() error {
			results[i] = p.ProcessOrder(ctx, o)
			return nil
		})
	}
	_ = g.Wait()

	run.Results = append(run.Results, results...)
	run.Summary.Processed = len(run.Results)
	for _, r := range run.Results {
		switch r.Status {
		case StatusSuccess:
			run.Summary.Success++
		case StatusSkipped:
			run.Summary.Skipped++
		case StatusError:
			run.Summary.Errors++
		}
	}

	p.logger.Info("orders processed",
		zap.Time("since", since),
		zap.Int("total", run.Summary.TotalOrders),
		zap.Int("new", run.Summary.NewOrders),
		zap.Int("success", run.Summary.Success),
		zap.Int("skipped", run.Summary.Skipped),
		zap.Int("errors", run.Summary.Errors))
	return run, nil
}

// HandleWebhook processes a single order pushed by Shopify, unless the
// ledger already has it.
func (p *Processor) HandleWebhook(ctx context.Context, o *shopify.Order) (OrderResult, error) {
	done, err := p.ledger.IsProcessed(ctx, o.IDString())
	if err != nil {
		return OrderResult{}, fmt.Errorf("failed to check order %s: %w", o.IDString(), err)
	}
	if done {
		return skippedResult(o, reasonAlreadyProcessed), nil
	}
	return p.ProcessOrder(ctx, o), nil
}

// ProcessOrder extracts the customer, generates and sends the report,
// records the order and annotates it in the shop.
func (p *Processor) ProcessOrder(ctx context.Context, o *shopify.Order) OrderResult {
	logger := p.logger.With(zap.String("order_id", o.IDString()), zap.String("order", o.Name))

	info, err := shopify.ExtractCustomer(o, p.opts.FallbackEmail)
	if errors.Is(err, shopify.ErrMissingBirthData) {
		logger.Info("order skipped, no birth data")
		return skippedResult(o, reasonNoBirthData)
	}
	if err != nil {
		return errorResult(o, err)
	}

	res, err := p.gen.Generate(ctx, Request{
		Day:           info.Day,
		Month:         info.Month,
		Year:          info.Year,
		Hour:          info.Hour,
		Min:           info.Min,
		Name:          info.FullName,
		Email:         info.Email,
		BirthPlace:    info.BirthPlace,
		BirthProvince: info.BirthProvince,
		Message:       info.Message,
	})
	if err != nil {
		logger.Error("report failed", zap.Error(err))
		return errorResult(o, err)
	}

	err = p.ledger.MarkProcessed(ctx, store.ProcessedOrder{
		OrderID:     o.IDString(),
		OrderName:   o.Name,
		ProcessedAt: p.now(),
		Customer: store.CustomerRecord{
			Name:          info.FullName,
			Email:         info.Email,
			GiftEmail:     info.GiftEmail,
			IsGift:        info.IsGift,
			BirthDate:     info.BirthDate,
			BirthTime:     info.BirthTime(),
			BirthPlace:    info.BirthPlace,
			BirthProvince: info.BirthProvince,
			Message:       info.Message,
			ZodiacSign:    res.ZodiacSign,
		},
	})
	switch {
	case errors.Is(err, store.ErrAlreadyProcessed):
		logger.Warn("order recorded concurrently")
	case err != nil:
		// the report is out; a later poll may send it again
		logger.Error("failed to record order", zap.Error(err))
	}

	if err := p.orders.AnnotateOrder(ctx, o.ID, OrderNote(res.ZodiacSign, p.now())); err != nil {
		logger.Warn("failed to annotate order", zap.Error(err))
	}

	return OrderResult{
		OrderID:      o.ID,
		OrderName:    o.Name,
		Status:       StatusSuccess,
		CustomerName: info.FullName,
		ZodiacSign:   res.ZodiacSign,
		EmailSent:    res.EmailSent,
	}
}

// OrderNote is the note written back to a processed order.
func OrderNote(sign string, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Ambos PDFs generados y enviados en un solo email el %s\n", spanishTimestamp(at))
	fmt.Fprintf(&b, "- Carta astral %s (texto)\n", strings.ToUpper(sign))
	b.WriteString("- Mandala visual (gráfico)")
	return b.String()
}

// spanishTimestamp formats t as es-ES "d/m/yyyy, HH:MM:SS".
func spanishTimestamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d, %02d:%02d:%02d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

func skippedResult(o *shopify.Order, reason string) OrderResult {
	return OrderResult{OrderID: o.ID, OrderName: o.Name, Status: StatusSkipped, Reason: reason}
}

func errorResult(o *shopify.Order, err error) OrderResult {
	return OrderResult{OrderID: o.ID, OrderName: o.Name, Status: StatusError, Error: err.Error()}
}
