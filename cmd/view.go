package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"memegram/feeds"
	"memegram/tui"
)

func viewCmd() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "Browse the meme feed in the terminal",
		Description: `Opens the interactive viewer showing one meme at a time.

Navigate with the arrow keys, j/k, the mouse wheel or by dragging. Press a to
toggle auto-scroll, l to like, s to copy a link and q to quit. More memes are
fetched automatically as you approach the end of the loaded feed.

The terminal is used by the viewer, so logs are discarded unless --log-file
is given.`,
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to this file",
				EnvVars: []string{"MEMEGRAM_LOG_FILE"},
			},
		),
		Action: func(ctx *cli.Context) error {
			if path := ctx.String("log-file"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("could not open log file: %w", err)
				}
				defer f.Close()
				log.SetOutput(f)
			} else {
				log.SetOutput(io.Discard)
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			model := tui.New(ctx.Context, feeds.NewSource(cfg.SourceConfig()), cfg.Settings(), tui.Options{
				WheelStep: cfg.Viewer.WheelStep,
				RowHeight: cfg.Viewer.RowHeight,
			})
			defer model.Controller().Close()

			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(ctx.Context),
			)
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("viewer stopped: %w", err)
			}
			return nil
		},
	}
}
