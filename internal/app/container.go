// Package app wires application services with infrastructure adapters.
package app

import (
	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/infrastructure/ai"
	"github.com/planflow/planflow/internal/infrastructure/config"
	"github.com/planflow/planflow/internal/infrastructure/httpapi"
	"github.com/planflow/planflow/internal/infrastructure/prompts"
	"github.com/planflow/planflow/internal/infrastructure/store"
	"github.com/planflow/planflow/internal/pkg/logger"
	"github.com/planflow/planflow/internal/ports"
	"github.com/planflow/planflow/internal/services"
)

// Container holds the dependency graph.
type Container struct {
	Config   domain.Config
	Logger   ports.Logger
	Provider ports.Provider
	Prompts  ports.PromptStore
	Store    *store.SQLiteStore

	Charter  *services.CharterService
	Releases *services.ReleaseService
	Server   *httpapi.Server
}

// Build constructs the dependency graph from the environment. A missing API
// key is not fatal: local operations keep working and AI operations report
// the configuration problem per request.
func Build() (*Container, error) {
	loader := &config.Loader{}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(cfg.Debug)

	provider, err := ai.NewFactory().ForConfig(cfg)
	if err != nil {
		log.Warn("AI provider unavailable", map[string]interface{}{"reason": err.Error()})
		provider = nil
	}

	promptStore := prompts.NewFileStore(cfg.PromptsDir)

	repo, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	charter := &services.CharterService{
		Provider: provider,
		Prompts:  promptStore,
		Logger:   log,
		Config:   cfg,
	}
	releases := &services.ReleaseService{
		Provider: provider,
		Prompts:  promptStore,
		Repo:     repo,
		Logger:   log,
		Config:   cfg,
	}

	return &Container{
		Config:   cfg,
		Logger:   log,
		Provider: provider,
		Prompts:  promptStore,
		Store:    repo,
		Charter:  charter,
		Releases: releases,
		Server: &httpapi.Server{
			Charter:  charter,
			Releases: releases,
			Repo:     repo,
			Logger:   log,
		},
	}, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
