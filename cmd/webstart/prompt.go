// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// terminalPrompt asks the user whether to run a resource that is not
// signed by a trusted signer. Prompts are serialized; answers other
// than y or yes are no.
type terminalPrompt struct {
	in          io.Reader
	out         io.Writer
	interactive bool

	mu        sync.Mutex
	startOnce sync.Once
	lines     chan string
}

func newTerminalPrompt(in io.Reader, out io.Writer, interactive bool) *terminalPrompt {
	return &terminalPrompt{in: in, out: out, interactive: interactive, lines: make(chan string, 1)}
}

// Ask is a trust.AskFunc. Without a terminal it answers no without
// prompting.
func (p *terminalPrompt) Ask(ctx context.Context, identity string, signing bundle.SigningStatus) bool {
	if !p.interactive {
		return false
	}
	p.startOnce.Do(func() { go p.readLines() })

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s is %s. Run it anyway? [y/N] ", identity, describeSigning(signing))
	select {
	case line, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return false
		}
		return isYes(line)
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false
	}
}

// readLines feeds lines from the input for the life of the process;
// it closes the channel at end of input.
func (p *terminalPrompt) readLines() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
	close(p.lines)
}

func describeSigning(signing bundle.SigningStatus) string {
	switch signing.Effective() {
	case bundle.SignedUntrusted:
		return "signed by an untrusted signer"
	default:
		return "not signed"
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
