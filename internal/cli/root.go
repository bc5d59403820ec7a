// Package cli implements the shiptrack admin command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shiptrack/internal/config"
	"shiptrack/internal/infrastructure/logger"
	"shiptrack/internal/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shiptrack",
		Short: "shiptrack administration",
		Long:  "Administrative commands for the shiptrack order store: migrations, users and orders.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (environment variables take precedence)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env is what every command needs: the loaded config, a logger and an open
// storage handle.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *storage.DB
}

func openEnv(ctx context.Context, opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	for _, diagnostic := range cfg.Diagnostics {
		log.Warn("configuration diagnostic", zap.String("detail", diagnostic))
	}

	db, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &env{cfg: cfg, logger: log, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.logger.Sync()
}
