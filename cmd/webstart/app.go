// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/webstart/cmd/webstart/cli"
	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/bundledef"
	"github.com/bureau-foundation/webstart/lib/config"
	"github.com/bureau-foundation/webstart/lib/fetch"
	"github.com/bureau-foundation/webstart/lib/loader"
	"github.com/bureau-foundation/webstart/lib/resolve"
	"github.com/bureau-foundation/webstart/lib/trust"
)

// app carries the process-level dependencies commands use, so tests
// can substitute them.
type app struct {
	stdout    io.Writer
	getenv    func(string) string
	runtime   func() bundle.Runtime
	ask       trust.AskFunc
	newLogger func(verbose bool) *slog.Logger
}

func newApp() *app {
	prompt := newTerminalPrompt(os.Stdin, os.Stderr, term.IsTerminal(int(os.Stdin.Fd())))
	return &app{
		stdout:    os.Stdout,
		getenv:    os.Getenv,
		runtime:   bundle.CurrentRuntime,
		ask:       prompt.Ask,
		newLogger: cli.NewCommandLogger,
	}
}

// options holds the flags shared by every command.
type options struct {
	configPath string
	verbose    bool

	// Bundle commands only.
	level  string
	mirror string
	os     string
	arch   string
	locale string
}

func (o *options) flags(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&o.configPath, "config", "", "config file (default $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
	return flagSet
}

func (o *options) bundleFlags(name string) *pflag.FlagSet {
	flagSet := o.flags(name)
	flagSet.StringVar(&o.level, "security-level", "", "trust level; may only be stricter than the configured level")
	flagSet.StringVar(&o.mirror, "mirror", "", "read resources from this directory instead of the codebase")
	flagSet.StringVar(&o.os, "os", "", "resolve for this operating system instead of the host's")
	flagSet.StringVar(&o.arch, "arch", "", "resolve for this architecture instead of the host's")
	flagSet.StringVar(&o.locale, "locale", "", "resolve for this locale instead of the environment's")
	return flagSet
}

// loadConfig reads the configured file, or the defaults when none is
// named, and applies the --security-level flag.
func (a *app) loadConfig(o *options) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = a.getenv(config.EnvironmentVariable)
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if o.level != "" {
		requested, err := trust.ParseLevel(o.level)
		if err != nil {
			return nil, fmt.Errorf("--security-level: %w", err)
		}
		configured, err := cfg.SecurityLevel()
		if err != nil {
			return nil, err
		}
		if configured.MoreRestrictive(requested) {
			return nil, fmt.Errorf("--security-level %s is less restrictive than the configured %s", requested, configured)
		}
		cfg.Security.Level = requested.String()
	}
	return cfg, nil
}

// resolved is a descriptor resolved for the runtime.
type resolved struct {
	config   *config.Config
	manifest *bundle.Manifest
	set      *resolve.Set
	logger   *slog.Logger
}

func (a *app) resolveDescriptor(o *options, descriptorPath string) (*resolved, error) {
	logger := a.newLogger(o.verbose)
	cfg, err := a.loadConfig(o)
	if err != nil {
		return nil, err
	}
	manifest, err := bundledef.ReadFile(descriptorPath)
	if err != nil {
		return nil, err
	}

	runtime := cfg.ApplyRuntime(a.runtime()).WithOverrides(bundle.Runtime{
		OS:     o.os,
		Arch:   o.arch,
		Locale: o.locale,
	})
	set, err := resolve.Resolve(*manifest, runtime)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", descriptorPath, err)
	}
	for _, ambiguity := range set.Ambiguities() {
		logger.Warn("resource selected by declaration order",
			"resource", ambiguity.Identity,
			"chosen", ambiguity.Chosen,
			"tied", ambiguity.Tied,
		)
	}
	logger.Debug("descriptor resolved",
		"descriptor", descriptorPath,
		"os", runtime.OS,
		"arch", runtime.Arch,
		"locale", runtime.Locale,
		"resources", set.Len(),
	)
	return &resolved{config: cfg, manifest: manifest, set: set, logger: logger}, nil
}

// upstream picks where resources come from: the --mirror directory,
// the bundle codebase, the configured base URL, or the descriptor's
// own directory, in that order. The returned namespace keeps cache
// entries from different sources apart.
func upstream(r *resolved, o *options, descriptorPath string) (fetch.Fetcher, string, error) {
	maxSize := r.config.Fetch.MaxResourceSize
	directory := func(path string) (fetch.Fetcher, string, error) {
		root, err := filepath.Abs(path)
		if err != nil {
			return nil, "", err
		}
		return fetch.DirFetcher{Root: root, MaxSize: maxSize}, "file://" + filepath.ToSlash(root), nil
	}

	if o.mirror != "" {
		return directory(o.mirror)
	}
	codebase := r.manifest.Codebase
	if codebase == "" {
		codebase = r.config.Fetch.BaseURL
	}
	if codebase == "" {
		return directory(filepath.Dir(descriptorPath))
	}
	fetcher, err := fetch.NewHTTPFetcher(fetch.HTTPConfig{
		BaseURL:       codebase,
		MaxSize:       maxSize,
		AllowInsecure: r.config.InsecureHTTPAllowed(),
		Logger:        r.logger,
	})
	if err != nil {
		return nil, "", err
	}
	return fetcher, codebase, nil
}

func openCache(cfg *config.Config, namespace string, source fetch.Fetcher, logger *slog.Logger) (*fetch.Cache, error) {
	compression, err := cfg.CacheCompression()
	if err != nil {
		return nil, err
	}
	return fetch.NewCache(fetch.CacheConfig{
		Path:        cfg.Paths.Cache,
		Namespace:   namespace,
		Compression: compression,
		MaxSize:     cfg.Fetch.MaxResourceSize,
		Upstream:    source,
		Logger:      logger,
	})
}

// openLoader wires the trust engine, the cache and the loader for a
// resolved descriptor.
func (a *app) openLoader(r *resolved, o *options, descriptorPath string) (*loader.Engine, error) {
	source, namespace, err := upstream(r, o, descriptorPath)
	if err != nil {
		return nil, err
	}
	cache, err := openCache(r.config, namespace, source, r.logger)
	if err != nil {
		return nil, err
	}

	level, err := r.config.SecurityLevel()
	if err != nil {
		return nil, err
	}
	askTimeout, err := r.config.AskTimeout()
	if err != nil {
		return nil, err
	}
	decider, err := trust.NewEngine(trust.Config{
		Level:      level,
		Ask:        a.ask,
		AskTimeout: askTimeout,
		SerialAsk:  true,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := r.config.FetchTimeout()
	if err != nil {
		return nil, err
	}
	return loader.NewEngine(loader.Config{
		Set:          r.set,
		Trust:        decider,
		Fetcher:      cache,
		FetchTimeout: fetchTimeout,
		Logger:       r.logger,
	})
}
