package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/edupulse/a11y-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + a.Cfg.Port
		a.Log.Info("Server listening", "addr", addr)
		return a.Run(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Log.Info("Shutting down...")
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		a.Log.Error("Server failed", "error", err.Error())
		os.Exit(1)
	}
}
