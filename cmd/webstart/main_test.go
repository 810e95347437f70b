// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

const testDescriptor = `{
  "title": "Example",
  // No codebase: resources are read next to the descriptor.
  "resources": [
    {"identity": "core.jar", "signing": "signed-trusted"},
    {"identity": "plugin.jar", "signing": "unsigned"},
    {"identity": "win.jar", "os": "Windows", "signing": "signed-trusted"},
  ],
  "index": {
    "com.example.*": "core.jar",
    "com.example.plugin.*": "plugin.jar",
    "com.example.win.*": "win.jar",
  },
}`

// fixture is a bundle directory, a config file, and an app whose
// output, logs and prompt answers are captured.
type fixture struct {
	dir        string
	descriptor string
	config     string

	stdout bytes.Buffer
	logs   bytes.Buffer

	mu     sync.Mutex
	answer bool
	asked  []string

	app *app
}

func newFixture(t *testing.T, configBody string) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), answer: true}

	writeFile(t, filepath.Join(f.dir, "core.jar"), buildArchive(t, map[string]string{
		"com/example/Main.class": "main bytes",
	}))
	writeFile(t, filepath.Join(f.dir, "plugin.jar"), buildArchive(t, map[string]string{
		"com/example/plugin/Tool.class": "tool bytes",
	}))
	writeFile(t, filepath.Join(f.dir, "win.jar"), buildArchive(t, map[string]string{
		"com/example/win/Shell.class": "shell bytes",
	}))

	f.descriptor = filepath.Join(f.dir, "app.jsonc")
	writeFile(t, f.descriptor, []byte(testDescriptor))

	state := filepath.Join(f.dir, "state")
	f.config = filepath.Join(f.dir, "webstart.yaml")
	writeFile(t, f.config, []byte("paths:\n  root: "+state+"\n  cache: "+filepath.Join(state, "cache")+"\n"+configBody))

	f.app = &app{
		stdout: &f.stdout,
		getenv: func(string) string { return "" },
		runtime: func() bundle.Runtime {
			return bundle.Runtime{OS: "linux", Arch: "amd64", Locale: "en_US.UTF-8"}
		},
		ask: func(_ context.Context, identity string, _ bundle.SigningStatus) bool {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.asked = append(f.asked, identity)
			return f.answer
		},
		newLogger: func(bool) *slog.Logger {
			return slog.New(slog.NewTextHandler(&f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		},
	}
	return f
}

func (f *fixture) execute(args ...string) error {
	f.stdout.Reset()
	return root(f.app).Execute(context.Background(), args)
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for name, content := range entries {
		file, err := writer.Create(name)
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		if _, err := file.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buffer.Bytes()
}

func TestResolveCommand(t *testing.T) {
	f := newFixture(t, "")

	if err := f.execute("resolve", "--config", f.config, f.descriptor); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	output := f.stdout.String()
	if !strings.Contains(output, "runtime: os=linux arch=amd64") {
		t.Errorf("output missing runtime line:\n%s", output)
	}
	for _, identity := range []string{"core.jar", "plugin.jar"} {
		if !strings.Contains(output, identity) {
			t.Errorf("output missing %s:\n%s", identity, output)
		}
	}
	if strings.Contains(output, "win.jar") {
		t.Errorf("windows-only resource resolved on linux:\n%s", output)
	}

	if err := f.execute("resolve", "--config", f.config, "--os", "Windows 10", f.descriptor); err != nil {
		t.Fatalf("resolve --os: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "win.jar") {
		t.Errorf("--os Windows did not select win.jar:\n%s", f.stdout.String())
	}
}

func TestResolveCommandArguments(t *testing.T) {
	f := newFixture(t, "")

	if err := f.execute("resolve", "--config", f.config); err == nil {
		t.Error("expected error without a descriptor")
	}
	missing := filepath.Join(f.dir, "missing.jsonc")
	if err := f.execute("resolve", "--config", f.config, missing); err == nil || !strings.Contains(err.Error(), "missing.jsonc") {
		t.Errorf("missing descriptor error = %v", err)
	}
}

func TestLoadCommand(t *testing.T) {
	f := newFixture(t, "fetch:\n  compression: lz4\n")

	err := f.execute("load", "--config", f.config, f.descriptor,
		"com.example.Main", "com.example.plugin.Tool", "com.example.Main")
	if err != nil {
		t.Fatalf("load: %v\nlogs:\n%s", err, f.logs.String())
	}

	output := f.stdout.String()
	for _, want := range []string{"com/example/Main.class", "com/example/plugin/Tool.class"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s:\n%s", want, output)
		}
	}
	if strings.Count(output, "fetched") != 2 {
		t.Errorf("expected two fetched resources:\n%s", output)
	}
	if len(f.asked) != 1 || f.asked[0] != "plugin.jar" {
		t.Errorf("asked = %v, want [plugin.jar]", f.asked)
	}

	if err := f.execute("cache", "list", "--config", f.config); err != nil {
		t.Fatalf("cache list: %v", err)
	}
	listing := f.stdout.String()
	if !strings.Contains(listing, "core.jar") || !strings.Contains(listing, "plugin.jar") {
		t.Errorf("cache listing missing entries:\n%s", listing)
	}
	if strings.Contains(listing, "win.jar") {
		t.Errorf("off-platform resource was cached:\n%s", listing)
	}

	if err := f.execute("cache", "list", "--diagnostic", "--config", f.config); err != nil {
		t.Fatalf("cache list --diagnostic: %v", err)
	}
	if !strings.Contains(f.stdout.String(), `"identity": "core.jar"`) {
		t.Errorf("diagnostic listing = %q", f.stdout.String())
	}

	if err := f.execute("cache", "clear", "--config", f.config); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "removed 2 cached resources") {
		t.Errorf("clear output = %q", f.stdout.String())
	}
}

func TestLoadCommandFailures(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantLog   string
		wantKind  string
		wantAsked bool
	}{
		{
			name:     "denied unsigned",
			args:     []string{"--security-level", "DENY_UNSIGNED", "com.example.plugin.Tool"},
			wantLog:  "refused",
			wantKind: "trust-denied",
		},
		{
			name:     "unknown name",
			args:     []string{"org.other.Thing"},
			wantLog:  "org.other.Thing",
			wantKind: "not-found",
		},
		{
			name:     "off-platform owner",
			args:     []string{"com.example.win.Shell"},
			wantLog:  "com.example.win.Shell",
			wantKind: "not-found",
		},
		{
			name:      "declined at prompt",
			args:      []string{"com.example.plugin.Tool"},
			wantLog:   "declined",
			wantKind:  "trust-denied",
			wantAsked: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t, "")
			f.answer = false

			args := append([]string{"load", "--config", f.config, f.descriptor}, test.args...)
			err := f.execute(args...)
			var exit interface{ ExitCode() int }
			if !errors.As(err, &exit) || exit.ExitCode() != 1 {
				t.Fatalf("load error = %v, want exit code 1", err)
			}
			logs := f.logs.String()
			if !strings.Contains(logs, "loading name failed") || !strings.Contains(logs, test.wantLog) {
				t.Errorf("logs missing failure mentioning %q:\n%s", test.wantLog, logs)
			}
			if !strings.Contains(logs, "failure="+test.wantKind) {
				t.Errorf("logs missing failure=%s:\n%s", test.wantKind, logs)
			}
			if asked := len(f.asked) > 0; asked != test.wantAsked {
				t.Errorf("asked = %v, want asked=%v", f.asked, test.wantAsked)
			}
		})
	}
}

func TestSecurityLevelFlag(t *testing.T) {
	f := newFixture(t, "security:\n  level: DENY_UNSIGNED\n")

	err := f.execute("load", "--config", f.config, "--security-level", "allow-unsigned", f.descriptor, "com.example.Main")
	if err == nil || !strings.Contains(err.Error(), "less restrictive") {
		t.Errorf("loosening error = %v", err)
	}

	err = f.execute("load", "--config", f.config, "--security-level", "bogus", f.descriptor, "com.example.Main")
	if err == nil || !strings.Contains(err.Error(), "--security-level") {
		t.Errorf("invalid level error = %v", err)
	}

	if err := f.execute("load", "--config", f.config, "--security-level", "DENY_ALL", f.descriptor, "com.example.Main"); err == nil {
		t.Error("DENY_ALL load succeeded")
	}
	if len(f.asked) != 0 {
		t.Errorf("asked = %v under a denying level", f.asked)
	}
}

func TestLevelsCommand(t *testing.T) {
	f := newFixture(t, "security:\n  level: very_high\n")

	if err := f.execute("levels", "--config", f.config); err != nil {
		t.Fatalf("levels: %v", err)
	}
	output := f.stdout.String()
	for _, want := range []string{"DENY_ALL", "DENY_UNSIGNED", "ASK_UNSIGNED", "ALLOW_UNSIGNED", "SIGNED_TRUSTED"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s:\n%s", want, output)
		}
	}
	if !strings.Contains(output, "* DENY_UNSIGNED") {
		t.Errorf("configured level not marked:\n%s", output)
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("styled output written to a non-terminal:\n%q", output)
	}
}

func TestInvalidConfig(t *testing.T) {
	f := newFixture(t, "fetch:\n  compression: brotli\n")

	err := f.execute("cache", "list", "--config", f.config)
	if err == nil || !strings.Contains(err.Error(), "fetch.compression") {
		t.Errorf("invalid config error = %v", err)
	}
}
