// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for mapgrab.
//
// Configuration is loaded from a single file specified by either the
// MAPGRAB_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Every field has a usable default, so all of mapgrab works with no
// config file at all against a browser on the default DevTools port.
package config
