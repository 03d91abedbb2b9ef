package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ksfoundation/oneshot/internal/config"
	"github.com/ksfoundation/oneshot/internal/dependency"
	"github.com/ksfoundation/oneshot/internal/mcp"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

var (
	gatewayHost    string
	gatewayPort    int
	gatewayNoWatch bool
)

var gatewayCmd = &cobra.Command{
	Use:         "gateway",
	Aliases:     []string{"serve"},
	Short:       "Start the oneshot gateway server",
	Annotations: map[string]string{logLevelAnnotation: "info"},
	RunE:        runGateway,
}

func init() {
	gatewayCmd.Flags().StringVar(&gatewayHost, "host", "", "Listen host (default: gateway.host from config)")
	gatewayCmd.Flags().IntVarP(&gatewayPort, "port", "p", 0, "Listen port (default: gateway.port from config)")
	gatewayCmd.Flags().BoolVar(&gatewayNoWatch, "no-watch", false, "Do not reload MCP servers when the config file changes")
}

func runGateway(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gatewayHost != "" {
		cfg.Gateway.Host = gatewayHost
	}
	if gatewayPort > 0 {
		cfg.Gateway.Port = gatewayPort
	}

	container, err := newContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s Starting oneshot gateway on %s...\n", cmdutils.Logo, container.Gateway().Addr())

	if err := container.ConnectProviders(ctx); err != nil {
		slog.Warn("some tool providers are unavailable", "err", err)
	}
	if providers := container.Registry().Providers(); len(providers) > 0 {
		fmt.Printf("✓ Tool providers: %s\n", strings.Join(providers, ", "))
	}
	if enabled := container.Channels().EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	}
	if n := container.CronService().Len(); n > 0 {
		fmt.Printf("✓ Schedules: %d\n", n)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return container.Gateway().Run(gctx) })
	g.Go(func() error { return container.Heartbeat().Start(gctx) })
	g.Go(func() error { return container.Channels().StartAll(gctx) })
	if container.CronService().Len() > 0 {
		g.Go(func() error { return container.CronService().Start(gctx) })
	}
	if !gatewayNoWatch {
		g.Go(func() error { return watchProviders(gctx, container) })
	}

	fmt.Printf("%s Gateway running. Press Ctrl+C to stop.\n", cmdutils.Logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}

// watchProviders reconciles the MCP registry with the config file whenever
// it changes. A missing config directory disables the watch.
func watchProviders(ctx context.Context, c *dependency.Container) error {
	err := config.Watch(ctx, configPath(), func(cfg *config.Config) {
		specs := mcp.LaunchSpecsFromConfig(cfg.Tools.MCPServers)
		if err := c.Registry().Reconcile(ctx, specs); err != nil {
			slog.Warn("mcp reload: some providers failed", "err", err)
		}
		slog.Info("mcp reload: providers", "names", c.Registry().Providers())
	})
	if err != nil && ctx.Err() == nil {
		slog.Warn("config watch disabled", "err", err)
		return nil
	}
	return err
}
