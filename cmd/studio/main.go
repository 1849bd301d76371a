// Command studio runs the film prompt recipes from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamirka/ainario/internal/app"
	"github.com/tamirka/ainario/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(func(ctx context.Context) (Studio, time.Duration, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, 0, err
		}
		logger := app.NewLogger(cfg, os.Stderr)
		st, err := app.NewStudio(ctx, cfg, app.NewHTTPClient(cfg), logger)
		if err != nil {
			return nil, 0, err
		}
		return st, cfg.RequestTimeout, nil
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
