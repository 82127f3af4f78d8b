// Package api exposes the report pipeline over HTTP: the Shopify webhook,
// order polling for schedulers and direct report and mandala generation.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cosmikids/mandala/internal/interfaces"
	"github.com/cosmikids/mandala/internal/report"
	"github.com/cosmikids/mandala/internal/shopify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// OrderProcessor runs the Shopify order flow.
type OrderProcessor interface {
	ProcessOrders(ctx context.Context, since time.Time, limit int) (*report.Run, error)
	HandleWebhook(ctx context.Context, o *shopify.Order) (report.OrderResult, error)
}

// ReportGenerator produces a report from birth data.
type ReportGenerator interface {
	Generate(ctx context.Context, req report.Request) (*report.Result, error)
}

// Options configures authentication.
type Options struct {
	APIKey             string
	CronSecret         string
	Production         bool
	WebhookSecret      string
	AllowTestSignature bool
}

// Server holds the handlers and their dependencies.
type Server struct {
	opts      Options
	orders    OrderProcessor
	reports   ReportGenerator
	renderer  interfaces.ChartRenderer
	logger    *zap.Logger
	now       func() time.Time
	maxUpload int64
}

// NewServer creates the HTTP server.
func NewServer(opts Options, orders OrderProcessor, reports ReportGenerator, renderer interfaces.ChartRenderer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		opts:      opts,
		orders:    orders,
		reports:   reports,
		renderer:  renderer,
		logger:    logger,
		now:       time.Now,
		maxUpload: 5 << 20,
	}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	if s.opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/shopify-webhook", s.shopifyWebhook)
		api.GET("/cron/process-orders", requireCronSecret(s.opts.CronSecret, s.opts.Production), s.cronProcessOrders)

		protected := api.Group("", requireAPIKey(s.opts.APIKey))
		protected.POST("/process-shopify-orders", s.processOrders)
		protected.POST("/generate-pdf-layered", s.generateReport)
		protected.POST("/mandala.png", s.renderMandala)
	}

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
