package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cosmikids/mandala/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// overridden with -ldflags "-X main.version=..."
var version = "dev"

var (
	verbose    bool
	configPath string
)

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "mandala",
		Short: "Natal-chart mandala renderer and report service",
		Long: `mandala draws personalised natal-chart mandalas and delivers them as PDF
reports, either on demand or for paid Shopify orders.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = logger.With(zap.String("env", cfg.Server.Environment))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the HCL config file")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newProcessCmd(a),
		newAssetsCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// run executes the command tree, then releases whatever the command opened.
// Cobra skips post-run hooks when RunE fails, so cleanup lives here.
func run(ctx context.Context, root *cobra.Command, a *app) error {
	defer a.shutdown()
	return root.ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config or logger needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	if err := run(ctx, root, a); err != nil {
		os.Exit(1)
	}
}
