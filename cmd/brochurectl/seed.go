package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/brochure/lib/content"
)

func newSeedCmd() *cobra.Command {
	var (
		dbPath string
		fname  string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample content into empty tables",
		Long: `seed fills every content table that has no rows yet from a seed YAML
file, or from the built-in sample content. Tables that already hold rows
are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := content.LoadSeed(fname)
			if err != nil {
				return err
			}

			db, err := openDB(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.Seed(cmd.Context(), sd)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d records\n", n)
			return err
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "./var/brochure.db", "path to the content database")
	cmd.Flags().StringVar(&fname, "file", "", "seed YAML file, the built-in sample content when empty")

	return cmd
}
