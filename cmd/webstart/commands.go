// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/webstart/cmd/webstart/cli"
	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/codec"
	"github.com/bureau-foundation/webstart/lib/fetch"
	"github.com/bureau-foundation/webstart/lib/loader"
)

func root(a *app) *cli.Command {
	return &cli.Command{
		Name: "webstart",
		Description: `Webstart: resolve and lazily load application bundles.

A bundle descriptor declares resources with platform conditions and an
index of the names each resource provides. Only the resources a launch
actually needs are fetched, after the trust policy allows them.`,
		Subcommands: []*cli.Command{
			resolveCommand(a),
			loadCommand(a),
			levelsCommand(a),
			cacheCommand(a),
		},
	}
}

func resolveCommand(a *app) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "resolve",
		Summary: "Show the resources selected for this platform",
		Usage:   "webstart resolve [flags] <descriptor>",
		Flags:   func() *pflag.FlagSet { return o.bundleFlags("resolve") },
		Examples: []cli.Example{
			{Description: "Resolve for the host", Command: "webstart resolve app.jsonc"},
			{Description: "Resolve as a French Windows host would", Command: "webstart resolve --os Windows --locale fr-FR app.jsonc"},
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one descriptor path")
			}
			r, err := a.resolveDescriptor(&o, args[0])
			if err != nil {
				return err
			}

			runtime := r.set.Runtime()
			fmt.Fprintf(a.stdout, "runtime: os=%s arch=%s locale=%s\n\n", runtime.OS, runtime.Arch, valueOr(runtime.Locale, "-"))
			writer := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "IDENTITY\tKIND\tSIGNING\tCONDITIONS\tLOCATION")
			for _, resource := range r.set.Resources() {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					resource.Identity,
					resource.Kind,
					resource.Signing,
					valueOr(resource.Conditions.String(), "-"),
					resource.FetchLocation(),
				)
			}
			return writer.Flush()
		},
	}
}

func loadCommand(a *app) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "load",
		Summary: "Load names from a bundle, fetching their resources on demand",
		Description: `Resolve each name to its owning resource, decide trust for that
resource, fetch it (at most once, through the local cache), and
extract the name's entry. Names are loaded concurrently.

The exit code is 1 when any name fails; each failure is logged.`,
		Usage: "webstart load [flags] <descriptor> <name>...",
		Flags: func() *pflag.FlagSet { return o.bundleFlags("load") },
		Examples: []cli.Example{
			{Description: "Load the main class", Command: "webstart load app.jsonc com.example.Main"},
			{Description: "Refuse anything unsigned", Command: "webstart load --security-level DENY_UNSIGNED app.jsonc com.example.Main"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return errors.New("expected a descriptor path and at least one name")
			}
			descriptorPath, names := args[0], args[1:]
			r, err := a.resolveDescriptor(&o, descriptorPath)
			if err != nil {
				return err
			}
			engine, err := a.openLoader(r, &o, descriptorPath)
			if err != nil {
				return err
			}

			artifacts := make([]*loader.Artifact, len(names))
			failures := make([]error, len(names))
			var group sync.WaitGroup
			for i, name := range names {
				group.Go(func() {
					artifacts[i], failures[i] = engine.ResolveSymbol(ctx, name)
				})
			}
			group.Wait()

			failed := 0
			writer := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "NAME\tRESOURCE\tKIND\tENTRY\tSIZE\tDIGEST")
			for i, name := range names {
				if failures[i] != nil {
					failed++
					r.logger.Error("loading name failed",
						"name", name,
						"failure", failureKind(failures[i]),
						"error", failures[i],
					)
					continue
				}
				artifact := artifacts[i]
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%s\n",
					name,
					artifact.Resource.Identity,
					artifact.Kind,
					artifact.Entry,
					len(artifact.Data),
					shortDigest(artifact.Digest),
				)
			}
			fmt.Fprintln(writer)
			fmt.Fprintln(writer, "RESOURCE\tSTATE\tSIZE\tARTIFACTS")
			for _, info := range engine.Records() {
				fmt.Fprintf(writer, "%s\t%s\t%d\t%d\n", info.Identity, info.State, info.Size, info.Artifacts)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func failureKind(err error) string {
	switch {
	case loader.IsClassNotFound(err):
		return "not-found"
	case loader.IsTrustDenied(err):
		return "trust-denied"
	case fetch.IsFetchError(err):
		return "fetch-failed"
	default:
		return "other"
	}
}

func cacheCommand(a *app) *cli.Command {
	var o options
	var diagnostic bool
	open := func() (*fetch.Cache, error) {
		cfg, err := a.loadConfig(&o)
		if err != nil {
			return nil, err
		}
		return openCache(cfg, "", nil, a.newLogger(o.verbose))
	}

	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect or clear the local resource cache",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Summary: "List cached resources",
				Flags: func() *pflag.FlagSet {
					flagSet := o.flags("list")
					flagSet.BoolVar(&diagnostic, "diagnostic", false, "print each entry's metadata in CBOR diagnostic notation")
					return flagSet
				},
				Run: func(context.Context, []string) error {
					cache, err := open()
					if err != nil {
						return err
					}
					entries, err := cache.Entries()
					if err != nil {
						return err
					}
					if diagnostic {
						for _, entry := range entries {
							encoded, err := codec.Marshal(entry)
							if err != nil {
								return err
							}
							notation, err := codec.Diagnose(encoded)
							if err != nil {
								return err
							}
							fmt.Fprintf(a.stdout, "%s %s\n", entry.Key, notation)
						}
						return nil
					}
					writer := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
					fmt.Fprintln(writer, "IDENTITY\tSIZE\tSTORED\tENCODING\tSTORED AT\tSOURCE")
					for _, entry := range entries {
						fmt.Fprintf(writer, "%s\t%d\t%d\t%s\t%s\t%s\n",
							entry.Identity,
							entry.Size,
							entry.StoredSize,
							entry.Encoding,
							entry.StoredAt.Format("2006-01-02 15:04:05"),
							entry.Location,
						)
					}
					return writer.Flush()
				},
			},
			{
				Name:    "clear",
				Summary: "Remove every cached resource",
				Flags:   func() *pflag.FlagSet { return o.flags("clear") },
				Run: func(context.Context, []string) error {
					cache, err := open()
					if err != nil {
						return err
					}
					removed, err := cache.Clear()
					fmt.Fprintf(a.stdout, "removed %d cached resources\n", removed)
					return err
				},
			},
		},
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func shortDigest(digest string) string {
	if len(digest) > 16 {
		return digest[:16]
	}
	return digest
}

// signingLabel is the display form of a signing status column.
func signingLabel(status bundle.SigningStatus) string {
	return strings.ToUpper(strings.ReplaceAll(status.String(), "-", "_"))
}
