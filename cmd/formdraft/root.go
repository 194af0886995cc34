package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	formdraft "github.com/goliatone/go-formdraft"
	"github.com/goliatone/go-formdraft/internal/config"
	"github.com/goliatone/go-formdraft/internal/logging"
	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/prompt"
)

var (
	version = "dev"
	commit  = "unknown"
)

// app carries state shared by every command.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger

	// driver overrides the terminal prompt driver.
	driver prompt.Driver
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "formdraft",
		Short: "Autosave and recover schema form drafts",
		Long: `Edit JSON documents against a schema with draft autosave.

A draft newer than the loaded document is offered for recovery before
editing starts. Drafts are kept in a local store (sqlite, file or memory).

Quick Start:
  formdraft edit --id page --schema page.json --item 42 --db-time 1700000000
  formdraft list
  formdraft diff saved.json draft.json`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "formdraft.yaml", "Configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newEditCmd(a),
		newDiscardCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newDiffCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging.Level, cmd.ErrOrStderr())
	config.SetLogger(a.logger)
	return nil
}

func (a *app) openStore(ctx context.Context) (draft.Store, func() error, error) {
	path := ""
	if a.cfg.Store.Driver != config.DriverMemory {
		p, err := a.cfg.StorePath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	a.logger.Debug().Str("driver", a.cfg.Store.Driver).Str("path", path).Msg("opening draft store")
	return formdraft.OpenStore(ctx, formdraft.StoreConfig{
		Driver:   a.cfg.Store.Driver,
		Path:     path,
		Compress: a.cfg.Store.Compress,
	})
}
