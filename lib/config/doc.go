// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the webstart
// launcher.
//
// Configuration is loaded from a single file specified by either the
// WEBSTART_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no automatic file search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: the
// security level tightens to DENY_UNSIGNED and plain-http downloads
// from non-loopback hosts are refused.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${WEBSTART_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
package config
