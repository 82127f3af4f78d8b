package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cosmikids/mandala/internal/parser"
	"github.com/cosmikids/mandala/internal/report"
	"github.com/cosmikids/mandala/internal/shopify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const headerShopifyHMAC = "X-Shopify-Hmac-Sha256"

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload))
	if err != nil {
		badRequest(c, "Cuerpo de la petición ilegible")
		return nil, false
	}
	return body, true
}

func (s *Server) shopifyWebhook(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	err := shopify.VerifyWebhook(body, c.GetHeader(headerShopifyHMAC), s.opts.WebhookSecret, s.opts.AllowTestSignature)
	if err != nil {
		s.logger.Warn("webhook rejected", zap.Error(err))
		unauthorized(c)
		return
	}

	order, err := shopify.ParseOrder(body)
	if err != nil {
		badRequest(c, "Orden inválida")
		return
	}

	res, err := s.orders.HandleWebhook(c.Request.Context(), order)
	if err != nil {
		_ = c.Error(err)
		internalError(c, "Error procesando la orden")
		return
	}
	if res.Status == report.StatusError {
		fail(c, http.StatusInternalServerError, res.Error)
		return
	}
	success(c, "Orden procesada", res)
}

// parseSince accepts RFC 3339 or a plain date. Empty means zero.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since %q", raw)
	}
	return t, nil
}

func (s *Server) processOrders(c *gin.Context) {
	since, err := parseSince(c.Query("since"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			badRequest(c, fmt.Sprintf("invalid limit %q", raw))
			return
		}
	}

	run, err := s.orders.ProcessOrders(c.Request.Context(), since, limit)
	if err != nil {
		_ = c.Error(err)
		internalError(c, "Error procesando órdenes")
		return
	}
	success(c, "Procesamiento completado", run)
}

func (s *Server) cronProcessOrders(c *gin.Context) {
	start := s.now()
	run, err := s.orders.ProcessOrders(c.Request.Context(), time.Time{}, 0)
	if err != nil {
		_ = c.Error(err)
		internalError(c, err.Error())
		return
	}
	success(c, "Cron job ejecutado exitosamente", gin.H{
		"startTime":       start.UTC().Format(time.RFC3339),
		"endTime":         s.now().UTC().Format(time.RFC3339),
		"ordersProcessed": run.Summary,
	})
}

func (s *Server) generateReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "JSON inválido")
		return
	}

	res, err := s.reports.Generate(c.Request.Context(), req)
	switch {
	case errors.Is(err, report.ErrInvalidRequest):
		badRequest(c, "Faltan datos requeridos")
		return
	case err != nil:
		_ = c.Error(err)
		internalError(c, "Error generando PDF con capas")
		return
	}

	message := "PDF con capas generado (email no configurado)"
	if res.EmailSent {
		message = "PDF con capas generado y enviado a " + req.Email
	}
	success(c, message, gin.H{
		"reportId":     res.ID.String(),
		"zodiacSign":   res.ZodiacSign,
		"pdfGenerated": len(res.PDF) > 0,
		"emailSent":    res.EmailSent,
		"skipped":      res.Skipped,
	})
}

// renderMandala draws a mandala from a chart document and returns the PNG.
func (s *Server) renderMandala(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	doc, err := parser.ParseChart(body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if doc.Personal == nil {
		badRequest(c, "missing personal data")
		return
	}

	res, err := s.renderer.Render(c.Request.Context(), *doc.Personal, doc.Horoscope)
	if err != nil {
		_ = c.Error(err)
		internalError(c, "Error generando mandala")
		return
	}

	c.Header("X-Skipped-Assets", strconv.Itoa(len(res.Skipped)))
	c.Data(http.StatusOK, "image/png", res.PNG)
}
