package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httpAdapter "github.com/ultravionic/cozyui/internal/adapters/http"
	"github.com/ultravionic/cozyui/internal/adapters/redis"
	wsAdapter "github.com/ultravionic/cozyui/internal/adapters/ws"
	"github.com/ultravionic/cozyui/internal/auth"
	"github.com/ultravionic/cozyui/internal/comfy"
	"github.com/ultravionic/cozyui/internal/config"
	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/internal/metrics"
	"github.com/ultravionic/cozyui/pkg/collab"
	"github.com/ultravionic/cozyui/pkg/domain"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collaboration server",
	Long:  `Starts the CozyUI server: REST API, websocket collaboration endpoint, and metrics exporter.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr != "" {
			cfg.Server.Addr = addr
		}

		logger := logging.New(logging.ParseLevel(cfg.Log.Level))

		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := store.Ping(ctx); err != nil {
			cancel()
			fmt.Printf("Error connecting to redis at %s: %v\n", cfg.Redis.Addr, err)
			os.Exit(1)
		}
		cancel()

		authSvc := auth.NewService(store.Users, []byte(cfg.Auth.Secret), cfg.Auth.TokenTTL.Std(),
			auth.WithLogger(logger))

		set := metrics.New(prometheus.DefaultRegisterer)

		mgr := collab.NewManager(
			collab.WithLogger(logger),
			collab.WithMetrics(set),
			collab.WithSessionResolver(store.Workflows),
		)

		wsHandler := wsAdapter.New(mgr, authSvc,
			wsAdapter.WithLogger(logger),
			wsAdapter.WithIdleTimeout(cfg.Collab.IdleTimeout.Std()),
			wsAdapter.WithSendBuffer(cfg.Collab.SendBuffer),
		)

		generator := comfy.New(cfg.Comfy.URL, comfy.WithLogger(logger))

		settings := domain.DefaultSettings()
		settings.ComfyUIAPIURL = cfg.Comfy.URL

		handler := httpAdapter.NewHandler(httpAdapter.Deps{
			Users:     store.Users,
			Workflows: store.Workflows,
			Outputs:   store.Outputs,
			Auth:      authSvc,
			Generator: generator,
			Collab:    wsHandler,
			Metrics:   promhttp.Handler(),
			Settings:  settings,
			Logger:    logger,
		})

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		}

		// Sweep connections that stopped talking entirely, so rosters
		// never hold ghosts even if a socket dies without a close frame.
		evictDone := make(chan struct{})
		go func() {
			ticker := time.NewTicker(cfg.Collab.IdleTimeout.Std())
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := mgr.EvictIdle(cfg.Collab.IdleTimeout.Std()); n > 0 {
						logger.Info("evicted idle connections", "count", n)
					}
				case <-evictDone:
					return
				}
			}
		}()
		defer close(evictDone)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("forced close failed", "err", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides config)")
}
