package main

import (
	"context"

	"github.com/cosmikids/mandala/internal/astrology"
	"github.com/cosmikids/mandala/internal/config"
	"github.com/cosmikids/mandala/internal/httpclient"
	"github.com/cosmikids/mandala/internal/mailer"
	"github.com/cosmikids/mandala/internal/pdf"
	"github.com/cosmikids/mandala/internal/renderer"
	"github.com/cosmikids/mandala/internal/report"
	"github.com/cosmikids/mandala/internal/shopify"
	"github.com/cosmikids/mandala/internal/store"
	"go.uber.org/zap"
)

// app builds the service components from the loaded config and closes
// whatever it opened once the command is done.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	closers []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("cleanup failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// shutdown runs the closers and flushes the logger.
func (a *app) shutdown() {
	a.close()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func layoutOptions(l *config.LayoutConfig) renderer.Options {
	return renderer.Options{
		RotationOffset: l.RotationOffset,
		SymbolRadius:   l.SymbolRadius,
		NameRadius:     l.NameRadius,
		SymbolScale:    l.SymbolScale,
		NearThreshold:  l.NearThreshold,
		RadiusStep:     l.RadiusStep,
		MandalaLift:    l.MandalaLift,
		Country:        l.Country,
	}
}

func (a *app) assets() (*renderer.Assets, error) {
	return renderer.OpenAssets(a.cfg.Assets.Dir, renderer.DefaultAssetLayout())
}

func (a *app) renderer() (*renderer.Renderer, error) {
	assets, err := a.assets()
	if err != nil {
		return nil, err
	}
	fonts, err := renderer.LoadFonts(assets.FS(), assets.Layout().Fonts, a.logger)
	if err != nil {
		return nil, err
	}
	return renderer.New(assets, fonts, layoutOptions(a.cfg.Layout), a.logger), nil
}

func (a *app) generator(r *renderer.Renderer) *report.Generator {
	c := a.cfg

	conv := pdf.NewConverter(pdf.Options{
		ChromePath: c.PDF.ChromePath,
		Timeout:    c.PDF.TimeoutDuration(),
	}, a.logger.Named("pdf"))
	a.onClose(conv.Close)

	astro := astrology.NewClient(astrology.Config{
		BaseURL:   c.Astrology.BaseURL,
		UserID:    c.Astrology.UserID,
		APIKey:    c.Astrology.APIKey,
		RetryMax:  c.Astrology.RetryMax,
		Latitude:  c.Astrology.Latitude,
		Longitude: c.Astrology.Longitude,
		Timezone:  c.Astrology.Timezone,
	}, a.logger.Named("astrology"))

	mail := mailer.New(mailer.Config{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		User:     c.SMTP.User,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		LogoPath: c.Assets.Logo,
		Timeout:  c.SMTP.TimeoutDuration(),
	}, a.logger.Named("mailer"))

	return report.NewGenerator(report.Deps{
		Horoscopes: astro,
		Renderer:   r,
		PDF:        conv,
		Mailer:     mail,
		GuideDir:   c.Assets.GuidesDir,
	}, a.logger.Named("report"))
}

func (a *app) processor(ctx context.Context, gen *report.Generator) (*report.Processor, error) {
	c := a.cfg

	ledger, err := store.Open(ctx, c.Store.Path, a.logger.Named("store"))
	if err != nil {
		return nil, err
	}
	a.onClose(ledger.Close)

	shop := shopify.NewClient(shopify.Config{
		StoreURL:    c.Shopify.StoreURL,
		AccessToken: c.Shopify.AccessToken,
		APIVersion:  c.Shopify.APIVersion,
		RetryMax:    httpclient.DefaultRetryMax,
	}, a.logger.Named("shopify"))
	if !shop.Enabled() {
		a.logger.Warn("shopify not configured, order polling will fail")
	}

	return report.NewProcessor(shop, ledger, gen, report.ProcessorOptions{
		FallbackEmail: c.Shopify.FallbackEmail,
		Lookback:      c.Shopify.LookbackDuration(),
		Limit:         c.Shopify.OrderLimit,
	}, a.logger.Named("orders")), nil
}
