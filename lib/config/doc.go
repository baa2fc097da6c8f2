// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the remotefs client.
//
// Configuration is loaded from a single file named by either the
// REMOTEFS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search. With neither set,
// [Load] returns [Default], which targets a server on 127.0.0.1:8080.
//
// Files are YAML; .json and .jsonc files are accepted and normalized
// with github.com/tidwall/jsonc first, so JSON with comments and
// trailing commas decodes the same way. Durations use Go syntax
// ("5s", "500ms").
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production requires a bounded read
// timeout.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Server, Transfer, Logging
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other remotefs packages.
package config
