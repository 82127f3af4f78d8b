package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cosmikids/mandala/internal/api"
	"github.com/cosmikids/mandala/internal/chart"
	"github.com/cosmikids/mandala/internal/parser"
	"github.com/cosmikids/mandala/internal/renderer"
	"github.com/cosmikids/mandala/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Server.Address
			}

			r, err := a.renderer()
			if err != nil {
				return err
			}
			gen := a.generator(r)
			proc, err := a.processor(ctx, gen)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.Options{
				APIKey:             a.cfg.Server.APIKey,
				CronSecret:         a.cfg.Server.CronSecret,
				Production:         a.cfg.Production(),
				WebhookSecret:      a.cfg.Shopify.WebhookSecret,
				AllowTestSignature: a.cfg.Shopify.AllowTestSignature,
			}, proc, gen, r, a.logger.Named("http"))

			if !a.cfg.MailEnabled() {
				a.logger.Warn("smtp not configured, reports will not be emailed")
			}
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		chartPath string
		output    string
		birth     chart.Birth
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a mandala PNG from a chart file",
		Long: `Renders a mandala from a chart document. The document is either a bare
horoscope response or {"personal": {...}, "horoscope": {...}}; for a bare
horoscope the text block is derived from the flags.`,
		Example: `  mandala render --chart chart.json --name "Lucía Pérez" --day 13 --month 7 --year 2019 -o lucia.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := validation.ValidateInputPath(chartPath, false); err != nil {
				return err
			}
			if err := validation.ValidateExtension(output, ".png"); err != nil {
				return err
			}

			doc, err := parser.ParseChartFile(ctx, chartPath)
			if err != nil {
				return err
			}

			r, err := a.renderer()
			if err != nil {
				return err
			}

			res, err := r.ExportPNG(ctx, doc.PersonalFor(birth), doc.Horoscope, output)
			if err != nil {
				return err
			}

			for _, s := range res.Skipped {
				a.logger.Warn("asset skipped", zap.String("layer", s.Layer), zap.String("asset", s.Asset), zap.Error(s.Err))
			}
			for _, step := range res.SkippedSteps {
				a.logger.Warn("step skipped", zap.String("step", step))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, %d planets)\n", output, res.Width, res.Height, len(res.Planets))
			return nil
		},
	}

	cmd.Flags().StringVar(&chartPath, "chart", "", "Chart JSON file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "mandala.png", "Output PNG path")
	cmd.Flags().StringVar(&birth.Name, "name", "", "Name shown on the mandala")
	cmd.Flags().IntVar(&birth.Day, "day", 0, "Birth day")
	cmd.Flags().IntVar(&birth.Month, "month", 0, "Birth month")
	cmd.Flags().IntVar(&birth.Year, "year", 0, "Birth year")
	cmd.Flags().StringVar(&birth.BirthPlace, "place", "", "Birth place (default Madrid)")
	cmd.Flags().StringVar(&birth.BirthProvince, "province", "", "Birth province")
	_ = cmd.MarkFlagRequired("chart")
	return cmd
}

func newProcessCmd(a *app) *cobra.Command {
	var (
		since string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate and send reports for new Shopify orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var from time.Time
			if since != "" {
				d, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: %w", since, err)
				}
				from = time.Now().Add(-d)
			}

			r, err := a.renderer()
			if err != nil {
				return err
			}
			proc, err := a.processor(ctx, a.generator(r))
			if err != nil {
				return err
			}

			run, err := proc.ProcessOrders(ctx, from, limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Look back this far, e.g. 48h (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum orders to fetch (default from config)")
	return cmd
}

func newAssetsCmd(a *app) *cobra.Command {
	assets := &cobra.Command{
		Use:   "assets",
		Short: "Inspect the artwork tree",
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Report missing and unused artwork files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateInputPath(a.cfg.Assets.Dir, true); err != nil {
				return err
			}
			set, err := a.assets()
			if err != nil {
				return err
			}
			report, err := renderer.ScanAssets(set)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Asset root: %s\n", a.cfg.Assets.Dir)
			fmt.Fprintf(out, "Present: %d\n", len(report.Present))
			for _, m := range report.Missing {
				fmt.Fprintf(out, "Missing: %s\n", m)
			}
			for _, u := range report.Unused {
				fmt.Fprintf(out, "Unused: %s\n", u)
			}

			if !report.OK() {
				return fmt.Errorf("%d essential assets missing", len(report.MissingEssential))
			}
			if report.Complete() {
				fmt.Fprintln(out, "All assets present")
			}
			return nil
		},
	}

	assets.AddCommand(check)
	return assets
}
