package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eyesofazrael/azrael/pkg/app"
	"github.com/eyesofazrael/azrael/pkg/config"
	"github.com/eyesofazrael/azrael/pkg/logging"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "azrael",
		Short:         "Eyes of Azrael: mythology encyclopedia backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults when empty)")

	root.AddCommand(
		newServeCmd(&configPath),
		newSearchCmd(&configPath),
		newHistoryCmd(&configPath),
		newPopularCmd(&configPath),
		newCacheCmd(&configPath),
		newRateLimitCmd(&configPath),
		newIndexCmd(&configPath),
		newImportCmd(&configPath),
		newModerationCmd(&configPath),
		newPrefsCmd(&configPath),
		newMCPCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads the config and builds the application. The returned
// cleanup closes the app and the log output. Only the server, prefs and
// history commands need the on-disk local store; the rest pass a
// LocalMode so they can run beside a running server.
func openApp(ctx context.Context, configPath string, opts ...app.Option) (*app.App, func(), error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	a, err := app.New(ctx, cfg, logger, opts...)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	return a, func() {
		_ = a.Close()
		_ = closeLog()
	}, nil
}
