package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/typerush/textsvc/pkg/agent"
	"github.com/typerush/textsvc/pkg/config"
	"github.com/typerush/textsvc/pkg/store"
	"github.com/typerush/textsvc/pkg/store/dynamo"
	"github.com/typerush/textsvc/pkg/store/sqlite"
	"github.com/typerush/textsvc/pkg/textgen"
)

func newLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "textsvc",
	}), nil
}

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.Store.SQLitePath, cfg.Store.PageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return st, st.Close, nil
	default:
		st, err := dynamo.New(ctx, dynamo.Config{
			Region:      cfg.Region,
			Table:       cfg.Store.Table,
			MaxAttempts: cfg.Store.MaxAttempts,
			MaxBackoff:  cfg.Store.MaxBackoff,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init dynamodb store: %w", err)
		}
		return st, func() error { return nil }, nil
	}
}

// newService wires store, agent and caches into a text service.
func newService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*textgen.Service, func() error, error) {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	ag, err := agent.New(ctx, agent.Config{
		Region:            cfg.Region,
		AgentID:           cfg.Agent.AgentID,
		AliasID:           cfg.Agent.AliasID,
		RequestsPerMinute: cfg.Agent.RequestsPerMinute,
	})
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("init agent: %w", err)
	}
	if _, ok := ag.(agent.Unavailable); ok {
		logger.Warn("agent not configured; paragraph requests will fail")
	}

	svc := textgen.New(st, ag, textgen.Options{
		CacheTTL:     cfg.Cache.TTL,
		StoreTimeout: cfg.Store.Timeout,
		AgentTimeout: cfg.Agent.Timeout,
		Logger:       logger,
	})
	return svc, closeStore, nil
}
