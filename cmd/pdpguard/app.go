package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/agentops/pdpguard/internal/config"
	"github.com/agentops/pdpguard/internal/history"
	"github.com/agentops/pdpguard/internal/runner"
	"github.com/agentops/pdpguard/pkg/compiler"
	"github.com/agentops/pdpguard/pkg/dispatch"
	"github.com/agentops/pdpguard/pkg/events"
	"github.com/agentops/pdpguard/pkg/verify"
)

// app bundles the wired components a command needs.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	fetcher  *verify.Fetcher
	runner   *runner.Runner
	compiler *compiler.Client
	store    *history.Store // nil when persistence is off
	bus      events.Bus
}

// newApp builds the component graph from config. withStore controls
// whether the run log is opened; read-only commands skip it.
func newApp(withStore bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var fetchOpts []verify.FetcherOption
	if cfg.Fetch.UserAgent != "" {
		fetchOpts = append(fetchOpts, verify.WithUserAgent(cfg.Fetch.UserAgent))
	}
	if len(cfg.Fetch.AllowedDomains) > 0 {
		fetchOpts = append(fetchOpts, verify.WithAllowedDomains(cfg.Fetch.AllowedDomains))
	}
	if cfg.Verify.TimeoutSec > 0 {
		fetchOpts = append(fetchOpts, verify.WithTimeout(time.Duration(cfg.Verify.TimeoutSec)*time.Second))
	}
	fetcher := verify.NewFetcher(fetchOpts...)
	scheduler := verify.NewScheduler(verify.NewVerifier(fetcher), cfg.Verify.Workers)

	registry := dispatch.NewRegistry()
	if cfg.Dispatch.SlackWebhookURL != "" {
		if err := registry.Register(dispatch.NewSlackDispatcher(cfg.Dispatch.SlackWebhookURL)); err != nil {
			return nil, err
		}
	}
	if err := registry.Register(dispatch.NewWebhookDispatcher(cfg.Dispatch.WebhookURL)); err != nil {
		return nil, err
	}
	if err := registry.Register(dispatch.NewEmailDispatcher(cfg.Dispatch.EmailBridgeURL)); err != nil {
		return nil, err
	}
	if cfg.Dispatch.GitHubToken != "" {
		gh, err := dispatch.NewGitHubDispatcher(cfg.Dispatch.GitHubToken)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(gh); err != nil {
			return nil, err
		}
	}

	var store *history.Store
	if withStore && cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path, cfg.History.MaxRuns)
		if err != nil {
			return nil, err
		}
	}

	bus := events.NewMemoryBus()
	opts := []runner.Option{runner.WithBus(bus), runner.WithLogger(logger)}
	if store != nil {
		opts = append(opts, runner.WithStore(store))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		fetcher:  fetcher,
		runner:   runner.New(scheduler, registry, opts...),
		compiler: compiler.NewClient(cfg.Compiler.BaseURL, cfg.Compiler.APIKey, cfg.Compiler.Model),
		store:    store,
		bus:      bus,
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

// printJSON renders a command result to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
