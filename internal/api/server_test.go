package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/renderer"
	"github.com/cosmikids/mandala/internal/report"
	"github.com/cosmikids/mandala/internal/shopify"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	code := m.Run()
	if code == 0 {
		if err := goleak.Find(); err != nil {
			code = 1
		}
	}
	os.Exit(code)
}

type fakeProcessor struct {
	since   time.Time
	limit   int
	webhook *shopify.Order
	run     *report.Run
	result  report.OrderResult
	err     error
}

func (f *fakeProcessor) ProcessOrders(_ context.Context, since time.Time, limit int) (*report.Run, error) {
	f.since, f.limit = since, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *fakeProcessor) HandleWebhook(_ context.Context, o *shopify.Order) (report.OrderResult, error) {
	f.webhook = o
	return f.result, f.err
}

type fakeGenerator struct {
	req report.Request
	res *report.Result
	err error
}

func (f *fakeGenerator) Generate(_ context.Context, req report.Request) (*report.Result, error) {
	f.req = req
	return f.res, f.err
}

type fakeRenderer struct {
	personal chart.PersonalData
	err      error
}

func (f *fakeRenderer) Render(_ context.Context, p chart.PersonalData, _ *chart.Horoscope) (*renderer.Result, error) {
	f.personal = p
	if f.err != nil {
		return nil, f.err
	}
	return &renderer.Result{PNG: []byte("\x89PNG"), Skipped: make([]renderer.SkippedAsset, 2)}, nil
}

const testAPIKey = "k3y"

type harness struct {
	proc *fakeProcessor
	gen  *fakeGenerator
	rend *fakeRenderer
	h    http.Handler
}

func newHarness(opts Options) *harness {
	if opts.APIKey == "" {
		opts.APIKey = testAPIKey
	}
	h := &harness{
		proc: &fakeProcessor{run: &report.Run{Summary: report.Summary{TotalOrders: 3, Success: 2}}},
		gen:  &fakeGenerator{res: &report.Result{ID: uuid.New(), ZodiacSign: "LEO", EmailSent: true, PDF: []byte("%PDF")}},
		rend: &fakeRenderer{},
	}
	h.h = NewServer(opts, h.proc, h.gen, h.rend, nil).Router()
	return h
}

func (h *harness) do(method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	rec := newHarness(Options{}).do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_Propagated(t *testing.T) {
	rec := newHarness(Options{}).do(http.MethodGet, "/health", nil, map[string]string{"X-Request-Id": "abc"})
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		key      string
		wantCode int
	}{
		{"process without key", "/api/process-shopify-orders", "", http.StatusUnauthorized},
		{"process wrong key", "/api/process-shopify-orders", "nope", http.StatusUnauthorized},
		{"process", "/api/process-shopify-orders", testAPIKey, http.StatusOK},
		{"generate without key", "/api/generate-pdf-layered", "", http.StatusUnauthorized},
		{"mandala without key", "/api/mandala.png", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers[headerAPIKey] = tt.key
			}
			rec := newHarness(Options{}).do(http.MethodPost, tt.target, nil, headers)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestProcessOrders(t *testing.T) {
	h := newHarness(Options{})
	rec := h.do(http.MethodPost, "/api/process-shopify-orders?since=2025-07-01&limit=10", nil,
		map[string]string{headerAPIKey: testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), h.proc.since)
	assert.Equal(t, 10, h.proc.limit)

	resp := decode(t, rec)
	assert.Equal(t, "Procesamiento completado", resp.Message)
	assert.Contains(t, rec.Body.String(), `"totalOrders":3`)
}

func TestProcessOrders_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"since", "?since=yesterday"},
		{"limit", "?limit=ten"},
		{"negative limit", "?limit=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newHarness(Options{}).do(http.MethodPost, "/api/process-shopify-orders"+tt.query, nil,
				map[string]string{headerAPIKey: testAPIKey})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProcessOrders_Failure(t *testing.T) {
	h := newHarness(Options{})
	h.proc.err = errors.New("shopify down")
	rec := h.do(http.MethodPost, "/api/process-shopify-orders", nil, map[string]string{headerAPIKey: testAPIKey})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusInternalServerError, decode(t, rec).Code)
}

func TestCron(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		auth       string
		wantCode   int
	}{
		{"production with secret", true, "Bearer s3cret", http.StatusOK},
		{"production wrong secret", true, "Bearer nope", http.StatusUnauthorized},
		{"production without header", true, "", http.StatusUnauthorized},
		{"development without header", false, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(Options{CronSecret: "s3cret", Production: tt.production})
			headers := map[string]string{}
			if tt.auth != "" {
				headers["Authorization"] = tt.auth
			}
			rec := h.do(http.MethodGet, "/api/cron/process-orders", nil, headers)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.True(t, h.proc.since.IsZero(), "cron polls the default window")
				assert.Contains(t, rec.Body.String(), `"ordersProcessed"`)
			}
		})
	}
}

func TestShopifyWebhook(t *testing.T) {
	const secret = "whsec"
	body := []byte(`{"id": 42, "name": "#1042"}`)

	tests := []struct {
		name      string
		opts      Options
		signature string
		result    report.OrderResult
		err       error
		wantCode  int
	}{
		{
			name:      "valid signature",
			opts:      Options{WebhookSecret: secret},
			signature: shopify.Sign(body, secret),
			result:    report.OrderResult{OrderID: 42, Status: report.StatusSuccess},
			wantCode:  http.StatusOK,
		},
		{
			name:      "already processed",
			opts:      Options{WebhookSecret: secret},
			signature: shopify.Sign(body, secret),
			result:    report.OrderResult{OrderID: 42, Status: report.StatusSkipped},
			wantCode:  http.StatusOK,
		},
		{
			name:      "bad signature",
			opts:      Options{WebhookSecret: secret},
			signature: shopify.Sign(body, "other"),
			wantCode:  http.StatusUnauthorized,
		},
		{
			name:      "test signature disabled",
			opts:      Options{WebhookSecret: secret},
			signature: shopify.TestSignature,
			wantCode:  http.StatusUnauthorized,
		},
		{
			name:      "test signature enabled",
			opts:      Options{WebhookSecret: secret, AllowTestSignature: true},
			signature: shopify.TestSignature,
			result:    report.OrderResult{OrderID: 42, Status: report.StatusSuccess},
			wantCode:  http.StatusOK,
		},
		{
			name:      "order failed",
			opts:      Options{WebhookSecret: secret},
			signature: shopify.Sign(body, secret),
			result:    report.OrderResult{OrderID: 42, Status: report.StatusError, Error: "astrology: 401"},
			wantCode:  http.StatusInternalServerError,
		},
		{
			name:      "ledger failed",
			opts:      Options{WebhookSecret: secret},
			signature: shopify.Sign(body, secret),
			err:       errors.New("locked"),
			wantCode:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.opts)
			h.proc.result, h.proc.err = tt.result, tt.err

			rec := h.do(http.MethodPost, "/api/shopify-webhook", body, map[string]string{headerShopifyHMAC: tt.signature})
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusUnauthorized {
				require.NotNil(t, h.proc.webhook)
				assert.Equal(t, int64(42), h.proc.webhook.ID)
			} else {
				assert.Nil(t, h.proc.webhook)
			}
		})
	}
}

func TestShopifyWebhook_InvalidOrder(t *testing.T) {
	body := []byte(`not json`)
	h := newHarness(Options{WebhookSecret: "s"})
	rec := h.do(http.MethodPost, "/api/shopify-webhook", body, map[string]string{headerShopifyHMAC: shopify.Sign(body, "s")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateReport(t *testing.T) {
	h := newHarness(Options{})
	body := []byte(`{"day":13,"month":7,"year":2019,"hour":8,"min":45,"name":"Ana","email":"ana@example.com"}`)

	rec := h.do(http.MethodPost, "/api/generate-pdf-layered", body, map[string]string{headerAPIKey: testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "Ana", h.gen.req.Name)
	assert.Equal(t, 45, h.gen.req.Min)

	resp := decode(t, rec)
	assert.Equal(t, "PDF con capas generado y enviado a ana@example.com", resp.Message)
	assert.Contains(t, rec.Body.String(), `"zodiacSign":"LEO"`)
	assert.Contains(t, rec.Body.String(), `"pdfGenerated":true`)
}

func TestGenerateReport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"malformed json", `{`, nil, http.StatusBadRequest, "JSON inválido"},
		{"missing fields", `{}`, report.ErrInvalidRequest, http.StatusBadRequest, "Faltan datos requeridos"},
		{"pipeline failure", `{}`, errors.New("chrome crashed"), http.StatusInternalServerError, "Error generando PDF con capas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(Options{})
			h.gen.err = tt.err
			rec := h.do(http.MethodPost, "/api/generate-pdf-layered", []byte(tt.body), map[string]string{headerAPIKey: testAPIKey})
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec).Message)
		})
	}
}

func TestRenderMandala(t *testing.T) {
	h := newHarness(Options{})
	body := []byte(`{
		"personal": {"name": "Ana", "birthDate": "1 de Enero de 2020", "birthPlace": "Madrid",
			"sunSign": "Capricorn", "moonSign": "Leo", "ascendantSign": "Aries"},
		"horoscope": {"planets": [{"name": "Sun", "sign": "Capricorn", "full_degree": 280}],
			"houses": [{"sign": "Aries", "degree": 10}]}
	}`)

	rec := h.do(http.MethodPost, "/api/mandala.png", body, map[string]string{headerAPIKey: testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("X-Skipped-Assets"))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes())
	assert.Equal(t, "Ana", h.rend.personal.Name)
}

func TestRenderMandala_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		renderErr error
		wantCode  int
	}{
		{"bare horoscope", `{"planets": [{"name": "Sun", "full_degree": 10}]}`, nil, http.StatusBadRequest},
		{"no chart", `{"personal": {"name": "Ana"}}`, nil, http.StatusBadRequest},
		{"malformed", `[`, nil, http.StatusBadRequest},
		{"render failure", `{"personal": {"name": "Ana"}, "horoscope": {"houses": [{"degree": 1}]}}`, errors.New("missing base"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(Options{})
			h.rend.err = tt.renderErr
			rec := h.do(http.MethodPost, "/api/mandala.png", []byte(tt.body), map[string]string{headerAPIKey: testAPIKey})
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
		})
	}
}

func TestRun_Shutdown(t *testing.T) {
	s := NewServer(Options{}, &fakeProcessor{}, &fakeGenerator{}, &fakeRenderer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("2025-07-01T12:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)))

	got, err = parseSince("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
