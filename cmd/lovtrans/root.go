package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nadzzz/lovtrans/internal/config"
)

// app carries the loaded configuration to subcommands.
type app struct {
	configFile string
	cfg        *config.Config
	flush      func()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "lovtrans",
		Short:         "Voice-enabled phrase translator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Name() == "serve")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.flush != nil {
				a.flush()
			}
		},
	}
	root.SetVersionTemplate("lovtrans {{.Version}}\n")
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to config file (e.g. configs/lovtrans.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newTranslateCmd(a),
		newSettingsCmd(a),
		newLanguagesCmd(a),
	)
	return root
}

// load reads .env, the configuration file and the environment, then sets up
// logging. Outside of serve, logs go to stderr so stdout carries only
// command output.
func (a *app) load(server bool) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg
	if !server {
		cfg.Logging.Output = "stderr"
	}
	a.flush = config.SetupLogging(cfg.Logging)
	slog.Debug("configuration loaded", "settings_backend", cfg.Settings.Backend, "model", cfg.Provider.Model)
	return nil
}
