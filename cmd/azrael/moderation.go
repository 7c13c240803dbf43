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

func newModerationCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderation",
		Short: "Ban users and review content flags",
	}
	cmd.AddCommand(
		newBanCmd(configPath),
		newUnbanCmd(configPath),
		newFlagsCmd(configPath),
	)
	return cmd
}

func newBanCmd(configPath *string) *cobra.Command {
	var (
		reason   string
		duration time.Duration
		by       string
	)

	cmd := &cobra.Command{
		Use:   "ban <user-id>",
		Short: "Ban a user from submitting content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := a.Moderation.Ban(ctx, args[0], reason, duration, by)
			if err != nil {
				return err
			}
			fmt.Printf("Banned %s, expires %s\n", b.UserID, formatExpiry(b.ExpiresAt))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the ban (required)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "ban duration (0 bans permanently)")
	cmd.Flags().StringVar(&by, "by", "cli", "moderator recorded with the ban")
	return cmd
}

func newUnbanCmd(configPath *string) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "unban <user-id>",
		Short: "Lift a user's ban",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Moderation.Unban(ctx, args[0], by); err != nil {
				return err
			}
			fmt.Printf("Unbanned %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "cli", "moderator recorded with the unban")
	return cmd
}

func newFlagsCmd(configPath *string) *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "List content flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			flags, err := a.Moderation.Flags(ctx, models.FlagStatus(status), limit)
			if err != nil {
				return err
			}
			if len(flags) == 0 {
				fmt.Printf("No %s flags.\n", status)
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tCONTENT\tREPORTER\tREASON")
			for _, f := range flags {
				fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%s\n",
					f.ID, models.FromMillis(f.CreatedAt).Format(time.DateTime),
					f.ContentType, f.ContentID, f.ReporterID, f.Reason)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", string(models.FlagPending), "pending, resolved or dismissed")
	cmd.Flags().IntVar(&limit, "limit", 50, "max flags to return")
	return cmd
}
