package cli

import (
	"errors"
	"fmt"

	"zapis/internal/database"

	"github.com/spf13/cobra"
)

func newBackupCmd(opts *rootOptions) *cobra.Command {
	var dir string
	var cleanup bool

	c := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the SQLite database into backup.storage_path",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closer, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			if a.SQLite == nil {
				return errors.New("backup is only supported for the sqlite driver; use pg_dump for postgres")
			}

			cfg := a.Config.Backup
			if dir != "" {
				cfg.StoragePath = dir
			}
			if cfg.StoragePath == "" {
				return errors.New("backup.storage_path is not set; pass --dir")
			}

			backups := database.NewBackupService(a.SQLite, cfg, a.Logger)
			path, err := backups.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if cleanup {
				removed := backups.CleanupOldBackups()
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d old backups\n", removed)
			}
			return nil
		},
	}

	c.Flags().StringVar(&dir, "dir", "", "backup directory; defaults to backup.storage_path")
	c.Flags().BoolVar(&cleanup, "cleanup", false, "also remove backups older than backup.retention_days")
	return c
}
