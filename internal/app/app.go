// Package app wires configuration, logging, storage and reference data for
// the commands.
package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"eurometrics/internal/catalog"
	"eurometrics/internal/config"
	"eurometrics/internal/countries"
	"eurometrics/internal/logging"
	"eurometrics/internal/model"
	"eurometrics/internal/store"
	"eurometrics/internal/store/sqlite"
)

type Env struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     store.Store
	Countries *countries.Table
	Groups    []model.CountryGroup
	Catalog   *catalog.Catalog
}

// Bootstrap loads everything a command needs. A non-empty dbPath overrides
// the configured database.
func Bootstrap(configPath, dbPath string) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dbPath) != "" {
		cfg.Database.Path = dbPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	table, groups, err := countries.Load(cfg.Reference.CountriesFile)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	metricCatalog, err := catalog.Load(cfg.Reference.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := OpenStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Env{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Countries: table,
		Groups:    groups,
		Catalog:   metricCatalog,
	}, nil
}

func (e *Env) Close() error {
	_ = e.Logger.Sync()
	return e.Store.Close()
}

// OpenStore returns a NopStore for an empty path.
func OpenStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

// ParseList splits a comma-separated flag value into lower-case keys.
func ParseList(value string) []string {
	raw := strings.Split(value, ",")
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		items = append(items, strings.ToLower(trimmed))
	}
	return items
}
