package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/cwbudde/evoshapes/internal/view"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

var (
	watchInterval time.Duration
	watchChime    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <run-id>",
	Short: "Show a stored run's fittest image live in the terminal",
	Long: `Polls the run record under --data-dir and redraws its genome with
half-block characters. Works for "run --save" and server runs alike, as long
as they snapshot periodically. Press q or Esc to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "Poll interval")
	watchCmd.Flags().BoolVar(&watchChime, "chime", false, "Play a sound when the run finishes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	st, err := store.NewFSStore(dataDir)
	if err != nil {
		return err
	}

	var chime view.Chime = view.Silent{}
	if watchChime {
		sp, err := view.NewSpeaker()
		if err != nil {
			slog.Warn("Audio unavailable, chime disabled", "error", err)
		} else {
			chime = sp
		}
	}

	// The screen owns the terminal from here on
	slog.SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return view.New(screen, view.StoreSource(st, args[0]), chime, watchInterval).Run(ctx)
}
