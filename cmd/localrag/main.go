// Command localrag ingests documents and answers questions from them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/localrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/localrag/internal/app"
	"github.com/custodia-labs/localrag/internal/metrics"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitError  = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		if app.IsConfigError(err) {
			os.Exit(exitConfig)
		}
		os.Exit(exitError)
	}
}

func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	if opts.SettingsOnly {
		settings, err := app.NewSettingsService(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		return &cli.Services{Settings: settings}, nil
	}

	a, err := app.New(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Ingest:   a.Ingest,
		Query:    a.Query,
		Document: a.Document,
		Settings: a.SettingsService,
		Metrics:  metrics.Handler(),
		Close:    a.Close,
	}, nil
}
