// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"

	"github.com/mapgrab/mapgrab/lib/config"
	"github.com/mapgrab/mapgrab/lib/mapstore"
)

// loadConfig resolves configuration for a command: an explicit
// --config path wins, otherwise MAPGRAB_CONFIG or defaults apply.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// openStore opens the run archive named by the configuration,
// creating its directory on first use.
func openStore(cfg *config.Config, logger *slog.Logger) (*mapstore.Store, error) {
	if err := cfg.EnsureStoreDir(); err != nil {
		return nil, err
	}
	compression, err := mapstore.ParseCompressionTag(cfg.Store.Compression)
	if err != nil {
		return nil, err
	}
	return mapstore.Open(mapstore.Config{
		Path:        cfg.Store.Path,
		Compression: compression,
		PoolSize:    cfg.Store.PoolSize,
		Logger:      logger,
	})
}
