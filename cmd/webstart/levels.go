// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/webstart/cmd/webstart/cli"
	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/trust"
)

func levelsCommand(a *app) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "levels",
		Summary: "List the security levels and what each allows",
		Description: `List the security levels from most to least restrictive, with the
outcome each gives for every signing status. The configured level is
marked.`,
		Flags: func() *pflag.FlagSet { return o.flags("levels") },
		Run: func(context.Context, []string) error {
			cfg, err := a.loadConfig(&o)
			if err != nil {
				return err
			}
			configured, err := cfg.SecurityLevel()
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, renderLevels(lipgloss.NewRenderer(a.stdout), configured))
			return nil
		},
	}
}

var signingColumns = []bundle.SigningStatus{bundle.Unsigned, bundle.SignedUntrusted, bundle.SignedTrusted}

func renderLevels(renderer *lipgloss.Renderer, configured trust.Level) string {
	nameStyle := renderer.NewStyle().Bold(true).Width(16)
	headerStyle := renderer.NewStyle().Faint(true)
	explanationStyle := renderer.NewStyle().PaddingLeft(4).Width(76)
	outcomeStyles := map[trust.Outcome]lipgloss.Style{
		trust.Deny:  renderer.NewStyle().Foreground(lipgloss.Color("9")).Width(18),
		trust.Ask:   renderer.NewStyle().Foreground(lipgloss.Color("11")).Width(18),
		trust.Allow: renderer.NewStyle().Foreground(lipgloss.Color("10")).Width(18),
	}
	markerStyle := renderer.NewStyle().Foreground(lipgloss.Color("12"))

	var builder strings.Builder
	header := "  " + nameStyle.Render("LEVEL")
	for _, status := range signingColumns {
		header += renderer.NewStyle().Width(18).Render(signingLabel(status))
	}
	builder.WriteString(headerStyle.Render(header) + "\n")

	for _, level := range trust.Levels() {
		marker := "  "
		if level == configured {
			marker = markerStyle.Render("*") + " "
		}
		row := marker + nameStyle.Render(level.String())
		for _, status := range signingColumns {
			outcome := trust.Evaluate(level, status)
			row += outcomeStyles[outcome].Render(outcome.String())
		}
		builder.WriteString(row + "\n")
		builder.WriteString(explanationStyle.Render(trust.Explanation(level)) + "\n")
	}
	return builder.String()
}
