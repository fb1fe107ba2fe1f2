package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/vestwatch/vestwatch/app/query"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := query.Initialize(ctx)
	defer func() { _ = app.Logger.Sync() }()

	if err := query.NewServer(app); err != nil {
		app.Logger.Fatal("Unable to initialize server", zap.Error(err))
	}
	app.Logger.Info("Tracking accounts",
		zap.Strings("accounts", app.Accounts()),
		zap.Strings("nodes", app.Config.Nodes))

	app.Start(ctx)
}
