package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"memegram/feeds"
	"memegram/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the meme feed as a JSON API",
		Description: `Starts an HTTP server exposing the normalized feed.

GET /api/feed?cursor=... returns one page of items and the cursor for the
next one. Upstream failures are reported as 502 rather than an empty page.
Prometheus metrics are served on /metrics and a health check on /healthz.`,
		Flags: append(sourceFlags(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"MEMEGRAM_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Usage:   "Comma separated origins allowed to call the API",
				EnvVars: []string{"MEMEGRAM_CORS_ORIGINS"},
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			app := server.Server(&server.ServerConfig{
				Source:       feeds.NewSource(cfg.SourceConfig()),
				CorsOrigins:  cfg.Server.CorsOrigins,
				FetchTimeout: cfg.Source.Timeout,
			})

			// Graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Server.Port)
				log.WithFields(log.Fields{
					"addr": addr,
				}).Info("Starting server")
				errChan <- app.Listen(addr)
			}()

			select {
			case err := <-errChan:
				return fmt.Errorf("server stopped: %w", err)
			case <-sigChan:
			case <-ctx.Context.Done():
			}

			log.Info("Gracefully shutting down...")
			return app.ShutdownWithTimeout(60 * time.Second)
		},
	}
}
