// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

// Package config loads Affinity configuration with Koanf v2.
//
// # Layers
//
//  1. Struct defaults (structs provider)
//  2. YAML file (file provider + yaml parser), looked up at $CONFIG_PATH,
//     ./config.yaml, ./config.yml, /etc/affinity/config.yaml
//  3. Environment variables (env provider); only names listed in the mapping
//     table are read
//
// Durations accept Go syntax ("90s", "2160h"). CORS_ORIGINS is a
// comma-separated list.
//
// # Example
//
//	database:
//	  path: /data/affinity.duckdb
//	affinity:
//	  lookback: 2160h
//	recommend:
//	  read_timeout: 2s
//
//	DUCKDB_PATH=/tmp/a.duckdb RECOMMEND_READ_TIMEOUT=500ms ./affinity
package config
