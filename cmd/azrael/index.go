package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eyesofazrael/azrael/pkg/app"
)

func newIndexCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the corpus search index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Reindex every stored entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := a.RebuildIndex(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d entities.\n", n)
			return nil
		},
	})
	return cmd
}

func newImportCmd(configPath *string) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a JSON array of entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, *configPath, app.WithLocalMode(app.LocalMemory))
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if seed {
				n, err := a.Entities.SeedMythologies(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Seeded %d mythologies.\n", n)
			}

			rep, err := a.Entities.Import(ctx, f)
			if err != nil {
				return err
			}
			for _, e := range rep.Errors {
				fmt.Fprintln(os.Stderr, e)
			}
			fmt.Printf("Imported %d, skipped %d, errors %d.\n", rep.Imported, rep.Skipped, len(rep.Errors))

			if rep.Imported > 0 {
				n, err := a.RebuildIndex(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Indexed %d entities.\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed-mythologies", false, "also write the mythology taxonomy documents")
	return cmd
}
