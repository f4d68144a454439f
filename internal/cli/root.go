package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"zapis/internal/app"
	"zapis/internal/config"
	"zapis/internal/logging"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func NewRoot() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "zapisctl",
		Short:         "Operator tool for the zapis booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to config.yaml")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newBackupCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	return cmd
}

// openApp loads the config and opens the store. Logs go to stderr so command
// output stays clean.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, io.Closer, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Output = "stderr"
	cfg.Logging.FilePath = ""

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	closeLog := func() {
		if closer != nil {
			_ = closer.Close()
		}
	}

	a, err := app.Open(ctx, cfg, logging.Component(logger, "zapisctl"))
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, closerFunc(func() error {
		err := a.Close()
		closeLog()
		return err
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
