package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eyesofazrael/azrael/pkg/app"
	"github.com/eyesofazrael/azrael/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve encyclopedia tools to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalFallback))
			if err != nil {
				return err
			}
			defer cleanup()

			srv := mcp.New(a.Search, a.Entities, a.Votes, a.Logger.With("component", "mcp"), version)
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
