package cli

import (
	"fmt"

	"zapis/internal/app"

	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var path string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Load locations, services, workers and schedules into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			if path == "" {
				path = a.Config.SeedPath
			}
			if path == "" {
				return fmt.Errorf("seed_path is not set; pass --file")
			}

			seed, err := app.LoadSeed(path)
			if err != nil {
				return err
			}
			applied, err := a.ApplySeed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			if !applied {
				fmt.Fprintln(cmd.OutOrStdout(), "store is not empty, seed skipped")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seeded")
			return nil
		},
	}

	c.Flags().StringVar(&path, "file", "", "seed file; defaults to seed_path")
	return c
}
