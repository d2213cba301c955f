package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/evoshapes/internal/server"
	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr      string
	noPersist       bool
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job server",
	Long: `Serves the job API, an HTML job list at / and Prometheus metrics at
/metrics. On SIGINT or SIGTERM running jobs are cancelled and their final
snapshot is written before the listener closes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().BoolVar(&noPersist, "no-persist", false, "Keep jobs in memory only")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Grace period for running jobs on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var st *store.FSStore
	if !noPersist {
		var err error
		st, err = store.NewFSStore(dataDir)
		if err != nil {
			return err
		}
		slog.Info("Persisting runs", "data_dir", st.BaseDir())
	}

	s := server.NewServer(listenAddr, st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
