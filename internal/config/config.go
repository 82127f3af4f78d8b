// Package config loads the service configuration from an HCL file.
//
// Every block and attribute is optional; whatever the file leaves out keeps
// its default, and blank secrets are then filled from the environment. The
// file can reference the environment directly:
//
//	shopify {
//	  access_token = env.SHOPIFY_ACCESS_TOKEN
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "mandala.hcl"

// Environments accepted by server.environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full service configuration.
type Config struct {
	Server    *ServerConfig    `hcl:"server,block"`
	Assets    *AssetsConfig    `hcl:"assets,block"`
	Layout    *LayoutConfig    `hcl:"layout,block"`
	Astrology *AstrologyConfig `hcl:"astrology,block"`
	Shopify   *ShopifyConfig   `hcl:"shopify,block"`
	SMTP      *SMTPConfig      `hcl:"smtp,block"`
	Store     *StoreConfig     `hcl:"store,block"`
	PDF       *PDFConfig       `hcl:"pdf,block"`
}

type ServerConfig struct {
	Address     string `hcl:"address,optional"`
	Environment string `hcl:"environment,optional"`
	APIKey      string `hcl:"api_key,optional"`     // x-api-key of the protected endpoints
	CronSecret  string `hcl:"cron_secret,optional"` // bearer token of the cron endpoint
}

type AssetsConfig struct {
	Dir       string `hcl:"dir,optional"`
	GuidesDir string `hcl:"guides_dir,optional"`
	Logo      string `hcl:"logo,optional"`
}

// LayoutConfig holds the mandala calibration.
type LayoutConfig struct {
	RotationOffset float64 `hcl:"rotation_offset,optional"`
	SymbolRadius   float64 `hcl:"symbol_radius,optional"`
	NameRadius     float64 `hcl:"name_radius,optional"`
	SymbolScale    float64 `hcl:"symbol_scale,optional"`
	NearThreshold  float64 `hcl:"near_threshold,optional"`
	RadiusStep     float64 `hcl:"radius_step,optional"`
	MandalaLift    float64 `hcl:"mandala_lift,optional"`
	Country        string  `hcl:"country,optional"`
}

type AstrologyConfig struct {
	BaseURL   string  `hcl:"base_url,optional"`
	UserID    string  `hcl:"user_id,optional"`
	APIKey    string  `hcl:"api_key,optional"`
	Latitude  float64 `hcl:"latitude,optional"`
	Longitude float64 `hcl:"longitude,optional"`
	Timezone  float64 `hcl:"timezone,optional"`
	RetryMax  int     `hcl:"retry_max,optional"`
}

type ShopifyConfig struct {
	StoreURL           string `hcl:"store_url,optional"`
	AccessToken        string `hcl:"access_token,optional"`
	WebhookSecret      string `hcl:"webhook_secret,optional"`
	APIVersion         string `hcl:"api_version,optional"`
	AllowTestSignature bool   `hcl:"allow_test_signature,optional"`
	FallbackEmail      string `hcl:"fallback_email,optional"`
	OrderLimit         int    `hcl:"order_limit,optional"`
	Lookback           string `hcl:"lookback,optional"`
}

type SMTPConfig struct {
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	From     string `hcl:"from,optional"`
	Timeout  string `hcl:"timeout,optional"`
}

type StoreConfig struct {
	Path string `hcl:"path,optional"`
}

type PDFConfig struct {
	ChromePath string `hcl:"chrome_path,optional"`
	Timeout    string `hcl:"timeout,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: &ServerConfig{
			Address:     ":8080",
			Environment: EnvDevelopment,
		},
		Assets: &AssetsConfig{
			Dir:       "public",
			GuidesDir: "public/pdfs",
			Logo:      "public/Logo_Cosmikidz.webp",
		},
		Layout: &LayoutConfig{
			RotationOffset: 7.5,
			SymbolRadius:   640,
			NameRadius:     685,
			SymbolScale:    0.9,
			NearThreshold:  5,
			RadiusStep:     12,
			MandalaLift:    400,
			Country:        "España",
		},
		Astrology: &AstrologyConfig{
			BaseURL:   "https://json.astrologyapi.com/v1",
			Latitude:  40.4168,
			Longitude: -3.7038,
			Timezone:  1,
			RetryMax:  3,
		},
		Shopify: &ShopifyConfig{
			APIVersion: "2024-01",
			OrderLimit: 50,
			Lookback:   "24h",
		},
		SMTP: &SMTPConfig{
			Port:    587,
			Timeout: "30s",
		},
		Store: &StoreConfig{
			Path: "processed_orders.db",
		},
		PDF: &PDFConfig{
			Timeout: "60s",
		},
	}
}

// Load reads the config file at path. An empty path means DefaultPath; a
// missing file yields the defaults. Blank values are then filled from the
// environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("HCL parse errors: %s", diags.Error())
	}

	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %s", path, diags.Error())
	}
	return nil
}

// evalContext exposes the process environment as the env object.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !validIdentifier(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// validIdentifier reports whether name can be used as an HCL attribute name.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func applyEnv(cfg *Config) {
	fill := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	fill(&cfg.Server.APIKey, "CRON_API_KEY")
	fill(&cfg.Server.CronSecret, "CRON_SECRET")

	fill(&cfg.Astrology.UserID, "ASTROLOGY_USER_ID")
	fill(&cfg.Astrology.APIKey, "ASTROLOGY_API_KEY")
	if v := os.Getenv("ASTROLOGY_API_URL"); v != "" && cfg.Astrology.BaseURL == Default().Astrology.BaseURL {
		cfg.Astrology.BaseURL = v
	}

	fill(&cfg.Shopify.StoreURL, "SHOPIFY_STORE_URL")
	fill(&cfg.Shopify.AccessToken, "SHOPIFY_ACCESS_TOKEN")
	fill(&cfg.Shopify.WebhookSecret, "SHOPIFY_WEBHOOK_SECRET")

	fill(&cfg.SMTP.Host, "SMTP_HOST")
	fill(&cfg.SMTP.User, "SMTP_USER")
	fill(&cfg.SMTP.Password, "SMTP_PASS")
	fill(&cfg.SMTP.From, "EMAIL_FROM")
	if v := os.Getenv("SMTP_PORT"); v != "" && cfg.SMTP.Port == Default().SMTP.Port {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}

	fill(&cfg.PDF.ChromePath, "CHROME_PATH", "PUPPETEER_EXECUTABLE_PATH")

	if v := os.Getenv("MANDALA_ENV"); v != "" {
		cfg.Server.Environment = v
	}
}

// Validate returns an error naming the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Server.Address == "":
		return fmt.Errorf("server.address must not be empty")
	case c.Server.Environment != EnvDevelopment && c.Server.Environment != EnvProduction:
		return fmt.Errorf("server.environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Server.Environment)
	case c.Assets.Dir == "":
		return fmt.Errorf("assets.dir must not be empty")
	case c.Layout.SymbolScale <= 0:
		return fmt.Errorf("layout.symbol_scale must be positive")
	case c.Layout.NearThreshold <= 0:
		return fmt.Errorf("layout.near_threshold must be positive")
	case c.Layout.RadiusStep < 0:
		return fmt.Errorf("layout.radius_step must not be negative")
	case c.Layout.SymbolRadius <= 0 || c.Layout.NameRadius <= 0:
		return fmt.Errorf("layout radii must be positive")
	case c.Astrology.BaseURL == "":
		return fmt.Errorf("astrology.base_url must not be empty")
	case c.Astrology.RetryMax < 0:
		return fmt.Errorf("astrology.retry_max must not be negative")
	case c.Shopify.OrderLimit <= 0 || c.Shopify.OrderLimit > 250:
		return fmt.Errorf("shopify.order_limit must be between 1 and 250")
	case c.SMTP.Port <= 0 || c.SMTP.Port > 65535:
		return fmt.Errorf("smtp.port must be between 1 and 65535")
	case c.Store.Path == "":
		return fmt.Errorf("store.path must not be empty")
	}

	if _, err := time.ParseDuration(c.Shopify.Lookback); err != nil {
		return fmt.Errorf("shopify.lookback: %w", err)
	}
	if _, err := time.ParseDuration(c.PDF.Timeout); err != nil {
		return fmt.Errorf("pdf.timeout: %w", err)
	}
	if c.SMTP.Timeout != "" {
		if _, err := time.ParseDuration(c.SMTP.Timeout); err != nil {
			return fmt.Errorf("smtp.timeout: %w", err)
		}
	}
	return nil
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Server.Environment == EnvProduction
}

// MailEnabled reports whether SMTP credentials are configured.
func (c *Config) MailEnabled() bool {
	return c.SMTP.User != "" && c.SMTP.Password != ""
}

// LookbackDuration is how far back order polling reaches by default.
func (s *ShopifyConfig) LookbackDuration() time.Duration {
	d, _ := time.ParseDuration(s.Lookback)
	return d
}

// TimeoutDuration is the PDF print deadline.
func (p *PDFConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(p.Timeout)
	return d
}

// TimeoutDuration bounds one SMTP exchange. Zero means the mailer default.
func (s *SMTPConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}
