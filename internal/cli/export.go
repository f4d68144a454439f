package cli

import (
	"fmt"
	"time"

	"zapis/internal/models"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var workerID int64
	var date, from, to, dir string

	c := &cobra.Command{
		Use:   "export",
		Short: "Write a worker's appointments and schedule to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(date, from, to)
			if err != nil {
				return err
			}

			a, closer, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			if dir == "" {
				dir = a.Config.Exports.Path
			}
			path, err := a.Exporter.SaveWorkerWorkbook(cmd.Context(), dir, workerID, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	c.Flags().Int64Var(&workerID, "worker", 0, "worker id")
	c.Flags().StringVar(&date, "date", "", "single day, YYYY-MM-DD")
	c.Flags().StringVar(&from, "from", "", "first day of a range, YYYY-MM-DD")
	c.Flags().StringVar(&to, "to", "", "last day of a range, YYYY-MM-DD")
	c.Flags().StringVar(&dir, "dir", "", "output directory; defaults to exports.path")
	_ = c.MarkFlagRequired("worker")
	c.MarkFlagsMutuallyExclusive("date", "from")
	c.MarkFlagsMutuallyExclusive("date", "to")
	return c
}

func buildFilter(date, from, to string) (models.DateFilter, error) {
	var f models.DateFilter
	parse := func(raw string) (*time.Time, error) {
		if raw == "" {
			return nil, nil
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		return &d, nil
	}

	var err error
	if f.Specific, err = parse(date); err != nil {
		return f, err
	}
	if f.Lower, err = parse(from); err != nil {
		return f, err
	}
	if f.Upper, err = parse(to); err != nil {
		return f, err
	}
	if f.Lower != nil && f.Upper != nil && f.Upper.Before(*f.Lower) {
		return f, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return f, nil
}
