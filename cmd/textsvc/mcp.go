package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/typerush/textsvc/pkg/config"
	"github.com/typerush/textsvc/pkg/mcp"
	"github.com/typerush/textsvc/pkg/tracker"
)

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve text generation as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, closeStore, err := newService(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			var tr tracker.Tracker
			if cfg.History.Enabled {
				st, err := tracker.New(cfg.History.DBPath)
				if err != nil {
					return fmt.Errorf("init tracker: %w", err)
				}
				defer func() { _ = st.Close() }()
				tr = st
			}

			return mcp.New(svc, tr, logger, version).Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}
