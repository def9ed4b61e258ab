package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"memegram/feeds"
	"memegram/models"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Print feed items as JSON lines",
		Description: `Fetch one or more pages of the feed and print every item
as a JSON object on a single line. Use a tool like jq to process the output.

The cursor for the next page is logged when done, pass it to --cursor to
continue where the previous run stopped.

Prints all other log messages to stderr.`,
		Flags: append(sourceFlags(),
			&cli.IntFlag{
				Name:    "pages",
				Value:   1,
				Usage:   "Number of pages to fetch",
				EnvVars: []string{"MEMEGRAM_PAGES"},
			},
			&cli.StringFlag{
				Name:  "cursor",
				Usage: "Cursor to start from",
			},
			&cli.BoolFlag{
				Name:  "lenient",
				Usage: "Treat upstream failures as the end of the feed",
			},
		),
		Action: func(ctx *cli.Context) error {
			// Keep stdout for the items
			log.SetOutput(os.Stderr)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			source := feeds.NewSource(cfg.SourceConfig())

			var cursor *string
			if c := ctx.String("cursor"); c != "" {
				cursor = &c
			}

			encoder := json.NewEncoder(ctx.App.Writer)
			total := 0
			for page := 0; page < ctx.Int("pages"); page++ {
				var result *models.Page
				if ctx.Bool("lenient") {
					result = source.FetchPageOrEmpty(ctx.Context, cursor)
				} else {
					result, err = source.FetchPage(ctx.Context, cursor)
					if err != nil {
						return fmt.Errorf("could not fetch page %d: %w", page+1, err)
					}
				}

				for _, item := range result.Items {
					if err := encoder.Encode(item); err != nil {
						return fmt.Errorf("could not write item: %w", err)
					}
				}
				total += len(result.Items)

				cursor = result.NextCursor
				if cursor == nil {
					break
				}
			}

			log.WithFields(log.Fields{
				"items":  total,
				"cursor": lo.FromPtr(cursor),
			}).Info("Done fetching")
			return nil
		},
	}
}
