package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eyesofazrael/azrael/pkg/app"
	"github.com/eyesofazrael/azrael/pkg/models"
)

func newSearchCmd(configPath *string) *cobra.Command {
	var (
		mode      string
		limit     int
		mythology string
		entity    string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus through the search cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalFallback))
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := a.Search.Search(ctx, strings.Join(args, " "), models.SearchOptions{
				Mode:      models.SearchMode(mode),
				Limit:     limit,
				Mythology: mythology,
				Type:      entity,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tTYPE\tMYTHOLOGY\tNAME\tID")
			for _, r := range results {
				fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\t%s\n", r.Score, r.Type, r.Mythology, r.Name, r.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "generic", "match mode: generic, exact, prefix, fuzzy")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (0 uses the default)")
	cmd.Flags().StringVar(&mythology, "mythology", "", "restrict to a mythology")
	cmd.Flags().StringVar(&entity, "type", "", "restrict to an entity type")
	return cmd
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches made through the search cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(context.Background(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if reset {
				if err := a.Search.ClearHistory(); err != nil {
					return err
				}
				fmt.Println("Search history cleared.")
				return nil
			}

			hist := a.Search.History()
			if len(hist) == 0 {
				fmt.Println("No search history.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tMODE\tRESULTS\tQUERY")
			for _, h := range hist {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					models.FromMillis(h.Timestamp).Format(time.DateTime), h.Options.Mode, h.ResultCount, h.Query)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "forget all history")
	return cmd
}

func newPopularCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Show the most frequent recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(context.Background(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "COUNT\tQUERY")
			for _, p := range a.Search.PopularSearches(limit) {
				fmt.Fprintf(w, "%d\t%s\n", p.Count, p.Query)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of searches to show")
	return cmd
}
