package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"memegram/config"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "memegram",
		Usage: "A one-meme-at-a-time feed of Reddit's hot memes",
		Description: `A feed viewer that pulls hot posts from a set of meme
		subreddits, keeps the safe static images and shows them one at a time.

		Use the view command for the interactive terminal viewer, serve to
		expose the normalized feed as a JSON API and fetch to dump feed items
		as JSON lines.

		Flags can generally be set via environment variables, e.g.:

		--config => MEMEGRAM_CONFIG=memegram.toml
		--port => MEMEGRAM_PORT=3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "Path to the TOML configuration file",
				EnvVars: []string{"MEMEGRAM_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"MEMEGRAM_LOG_LEVEL"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			viewCmd(),
			serveCmd(),
			fetchCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// sourceFlags configure the upstream query and are shared by all commands
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "subreddit",
			Aliases: []string{"r"},
			Usage:   "Subreddit to include, can be repeated",
			EnvVars: []string{"MEMEGRAM_SUBREDDITS"},
		},
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "Number of posts requested per page",
			EnvVars: []string{"MEMEGRAM_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "retries",
			Usage:   "Retries for transient upstream failures",
			EnvVars: []string{"MEMEGRAM_RETRIES"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout for a single upstream request",
			EnvVars: []string{"MEMEGRAM_TIMEOUT"},
		},
	}
}

// loadConfig reads the config file and lets flags that were set override it
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if ctx.IsSet("subreddit") {
		cfg.Source.Subreddits = ctx.StringSlice("subreddit")
	}
	if ctx.IsSet("limit") {
		cfg.Source.Limit = ctx.Int("limit")
	}
	if ctx.IsSet("retries") {
		cfg.Source.Retries = ctx.Int("retries")
	}
	if ctx.IsSet("timeout") {
		cfg.Source.Timeout = ctx.Duration("timeout")
	}
	if ctx.IsSet("port") {
		cfg.Server.Port = ctx.Int("port")
	}
	if ctx.IsSet("cors-origins") {
		cfg.Server.CorsOrigins = ctx.String("cors-origins")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.WithFields(log.Fields{
		"subreddits": cfg.Source.Subreddits,
		"limit":      cfg.Source.Limit,
		"retries":    cfg.Source.Retries,
	}).Debug("Configuration loaded")

	return cfg, nil
}
