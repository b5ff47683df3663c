package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	httpserver "github.com/OliveiraNt/infralens/internal/adapters/http"
	"github.com/OliveiraNt/infralens/internal/application"
	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/infrastructure/repository"
	"github.com/OliveiraNt/infralens/internal/metrics"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr    string
	noWatch bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh engine and serve the cluster state over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Do not reload the configuration file on change")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts serveOptions) error {
	repo := repository.NewConfigRepository(root.resolveConfigPath())
	cfg, err := repo.LoadFromFile()
	if err != nil {
		return fmt.Errorf("load config %s: %w", repo.Path(), err)
	}
	utils.Logger.Info("configuration loaded", "path", repo.Path())

	cluster, err := cfg.ActiveCluster()
	if err != nil {
		return err
	}
	client, err := root.factory.CreateClient(cluster, cfg.Engine.RequestTimeout)
	if err != nil {
		return fmt.Errorf("create client for %s: %w", cluster.Name, err)
	}

	recorder := metrics.NewRecorder()
	engine := application.NewEngine(client, cfg.Engine, application.WithObserver(recorder))
	defer engine.Close()

	repo.OnChange(func(next config.FileConfig) {
		c, err := next.ActiveCluster()
		if err != nil {
			utils.Logger.Error("reloaded config has no active cluster", "err", err)
			return
		}
		nc, err := root.factory.CreateClient(c, next.Engine.RequestTimeout)
		if err != nil {
			utils.Logger.Error("failed to create client for reloaded cluster", "cluster", c.Name, "err", err)
			return
		}
		utils.Logger.Info("cluster configuration changed, rebinding", "cluster", c.Name, "brokers", c.Brokers)
		engine.Rebind(nc)
	})
	if !opts.noWatch {
		if err := repo.Watch(); err != nil {
			utils.Logger.Error("failed to start config watcher", "err", err)
		}
		defer func() { _ = repo.Close() }()
	}

	if cfg.Engine.ShouldAutoConnect() {
		if err := engine.Connect(ctx); err != nil {
			utils.Logger.Warn("initial connect failed, serving disconnected", "cluster", cluster.Name, "err", err)
		} else {
			utils.Logger.Info("connected", "cluster", cluster.Name, "brokers", cluster.Brokers)
		}
	}
	go engine.Run(ctx)

	addr := cfg.HTTP.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	server := httpserver.New(engine,
		httpserver.WithMetrics(recorder.Handler()),
		httpserver.WithCluster(repo.ActiveCluster),
		httpserver.WithVersion(Version),
	)
	return server.Run(ctx, addr)
}
