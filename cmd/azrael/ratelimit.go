package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eyesofazrael/azrael/pkg/app"
	"github.com/eyesofazrael/azrael/pkg/models"
)

func newRateLimitCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage IP blocks and the security log",
	}
	cmd.AddCommand(
		newBlockCmd(configPath),
		newUnblockCmd(configPath),
		newBlockedCmd(configPath),
		newSecurityLogsCmd(configPath),
		newCleanupCmd(configPath),
	)
	return cmd
}

func newBlockCmd(configPath *string) *cobra.Command {
	var (
		reason   string
		duration time.Duration
		by       string
	)

	cmd := &cobra.Command{
		Use:   "block <ip>",
		Short: "Block an IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := a.Limiter.Block(ctx, args[0], reason, duration, by)
			if err != nil {
				return err
			}
			fmt.Printf("Blocked %s (hash %s), expires %s\n", args[0], b.IPHash, formatExpiry(b.ExpiresAt))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the block")
	cmd.Flags().DurationVar(&duration, "duration", 24*time.Hour, "block duration (0 blocks until unblocked)")
	cmd.Flags().StringVar(&by, "by", "cli", "administrator recorded with the block")
	return cmd
}

func newUnblockCmd(configPath *string) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "unblock <ip>",
		Short: "Remove the block on an IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			hash, err := a.Limiter.Unblock(ctx, args[0], by)
			if err != nil {
				return err
			}
			fmt.Printf("Unblocked %s (hash %s)\n", args[0], hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "cli", "administrator recorded with the unblock")
	return cmd
}

func newBlockedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "blocked",
		Short: "List active IP blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			blocked, err := a.Limiter.BlockedIPs(ctx)
			if err != nil {
				return err
			}
			if len(blocked) == 0 {
				fmt.Println("No blocked IPs.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IP HASH\tBLOCKED BY\tBLOCKED AT\tEXPIRES\tREASON")
			for _, b := range blocked {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					shortHash(b.IPHash), b.BlockedBy,
					models.FromMillis(b.BlockedAt).Format(time.DateTime),
					formatExpiry(b.ExpiresAt), b.Reason)
			}
			return w.Flush()
		},
	}
}

func newSecurityLogsCmd(configPath *string) *cobra.Command {
	var (
		eventType string
		since     string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show security log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			q := models.SecurityLogQuery{EventType: eventType, Limit: limit}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				q.Since = models.Millis(t)
			}
			events, err := a.Audit.Query(ctx, q)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No security events.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tIP HASH\tUID\tDETAILS")
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
					models.FromMillis(ev.Timestamp).Format(time.DateTime),
					ev.Type, shortHash(ev.IPHash), ev.UID, ev.Details)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events to return")
	return cmd
}

func newCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired blocks, idle request logs and old security events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := a.Limiter.Cleanup(ctx, a.Audit)
			if err != nil {
				return err
			}
			fmt.Printf("Expired blocks:   %d\nIdle request logs: %d\nSecurity events:  %d\n",
				rep.ExpiredBlocks, rep.IdleRequests, rep.SecurityLogs)
			return nil
		},
	}
}

func formatExpiry(ms int64) string {
	if ms == 0 {
		return "never"
	}
	return models.FromMillis(ms).Format(time.DateTime)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
