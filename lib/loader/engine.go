// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/clock"
	"github.com/bureau-foundation/webstart/lib/fetch"
	"github.com/bureau-foundation/webstart/lib/resolve"
	"github.com/bureau-foundation/webstart/lib/trust"
)

// Decider yields the trust verdict for a resource. *trust.Engine
// implements it.
type Decider interface {
	Decide(ctx context.Context, resource bundle.Resource) (trust.Decision, error)
}

// forgetter is implemented by deciders that can discard a failed
// evaluation so that Reset also retries the prompt.
type forgetter interface {
	Forget(identity string) bool
}

// Config holds the parameters for NewEngine.
type Config struct {
	Set     *resolve.Set
	Trust   Decider
	Fetcher fetch.Fetcher

	// FetchTimeout bounds each fetch. Zero leaves fetches unbounded.
	FetchTimeout time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Engine resolves names to artifacts, fetching each resource at most
// once. It is safe for concurrent use.
type Engine struct {
	set          *resolve.Set
	trust        Decider
	fetcher      fetch.Fetcher
	fetchTimeout time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	// records is keyed by identity and fixed at construction; each
	// record carries its own lock.
	records map[string]*record
}

type record struct {
	resource bundle.Resource

	mu    sync.Mutex
	state State

	// flight is non-nil while a flight is running (including the
	// trust decision, during which state is still not-started). It is
	// closed when the flight settles.
	flight chan struct{}

	err       error
	archive   *zip.Reader
	size      int
	fetchedAt time.Time
	artifacts map[string]*Artifact
}

// NewEngine returns an engine for the resolved set in config.
func NewEngine(config Config) (*Engine, error) {
	if config.Set == nil {
		return nil, errors.New("loader: resolved set is required")
	}
	if config.Trust == nil {
		return nil, errors.New("loader: trust decider is required")
	}
	if config.Fetcher == nil {
		return nil, errors.New("loader: fetcher is required")
	}
	if config.FetchTimeout < 0 {
		return nil, fmt.Errorf("loader: negative fetch timeout %v", config.FetchTimeout)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		set:          config.Set,
		trust:        config.Trust,
		fetcher:      config.Fetcher,
		fetchTimeout: config.FetchTimeout,
		clock:        clock.OrReal(config.Clock),
		logger:       logger,
		records:      make(map[string]*record, config.Set.Len()),
	}
	for _, resource := range config.Set.Resources() {
		engine.records[resource.Identity] = &record{resource: resource}
	}
	return engine, nil
}

// ResolveSymbol returns the artifact for name, materializing its
// owning resource if needed.
//
// Errors are *ClassNotFoundError (no owner, or the owner's archive
// lacks the entry), *TrustDeniedError, *fetch.FetchError, or the
// caller's context error when ctx ends first.
func (e *Engine) ResolveSymbol(ctx context.Context, name string) (*Artifact, error) {
	resource, ok := e.set.Owner(name)
	if !ok {
		return nil, &ClassNotFoundError{Name: name}
	}
	target := e.records[resource.Identity]

	for {
		target.mu.Lock()
		if target.state.Terminal() {
			if target.state == StateFetched {
				artifact, err := e.artifactLocked(target, name)
				target.mu.Unlock()
				return artifact, err
			}
			err := target.err
			target.mu.Unlock()
			return nil, err
		}

		if target.flight == nil {
			target.flight = make(chan struct{})
			go e.fly(context.WithoutCancel(ctx), target, target.flight)
		}
		flight := target.flight
		target.mu.Unlock()

		select {
		case <-flight:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// artifactLocked extracts or returns the cached artifact for name.
// target.mu must be held and target must be fetched.
func (e *Engine) artifactLocked(target *record, name string) (*Artifact, error) {
	if artifact, ok := target.artifacts[name]; ok {
		return artifact, nil
	}
	artifact, err := extract(target.archive, target.resource, name, e.set.Runtime().OS)
	if err != nil {
		return nil, &ClassNotFoundError{Name: name, Resource: target.resource.Identity, Cause: err}
	}
	if target.artifacts == nil {
		target.artifacts = make(map[string]*Artifact)
	}
	target.artifacts[name] = artifact
	return artifact, nil
}

// fly runs the trust decision and fetch for one record and settles
// it. done is the record's flight channel.
func (e *Engine) fly(ctx context.Context, target *record, done chan struct{}) {
	resource := target.resource
	logger := e.logger.With("resource", resource.Identity)

	decision, err := e.trust.Decide(ctx, resource)
	if err != nil {
		cause := err
		if errors.Is(err, trust.ErrAskTimeout) {
			cause = fmt.Errorf("%w: %w", fetch.ErrTimeout, err)
		}
		logger.Warn("trust decision failed", "error", err)
		e.settle(target, done, StateFetchFailed, &fetch.FetchError{Resource: resource.Identity, Cause: cause}, nil, 0)
		return
	}
	if !decision.Allowed() {
		logger.Info("resource refused by trust policy",
			"level", decision.Level.String(),
			"reason", decision.Reason,
		)
		e.settle(target, done, StateTrustDenied, &TrustDeniedError{Resource: resource.Identity, Decision: decision}, nil, 0)
		return
	}

	target.mu.Lock()
	target.state = StateFetchInProgress
	target.mu.Unlock()

	start := e.clock.Now()
	data, err := e.fetch(ctx, resource)
	if err != nil {
		logger.Warn("resource fetch failed", "error", err)
		e.settle(target, done, StateFetchFailed, err, nil, 0)
		return
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = &fetch.FetchError{Resource: resource.Identity, Cause: fmt.Errorf("%w: %w", ErrInvalidArchive, err)}
		logger.Warn("resource fetch failed", "error", err)
		e.settle(target, done, StateFetchFailed, err, nil, 0)
		return
	}

	logger.Info("resource fetched",
		"size", len(data),
		"entries", len(archive.File),
		"duration", e.clock.Now().Sub(start),
	)
	e.settle(target, done, StateFetched, nil, archive, len(data))
}

// fetch calls the fetcher under the configured deadline. The deadline
// runs on the engine clock; the fetcher's context is cancelled when it
// expires.
func (e *Engine) fetch(ctx context.Context, resource bundle.Resource) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	results := make(chan result, 1)
	go func() {
		data, err := e.fetcher.Fetch(ctx, resource)
		results <- result{data, err}
	}()

	var expired <-chan time.Time
	if e.fetchTimeout > 0 {
		expired = e.clock.After(e.fetchTimeout)
	}
	select {
	case r := <-results:
		return r.data, fetch.Wrap(resource, r.err)
	case <-expired:
		return nil, &fetch.FetchError{
			Resource: resource.Identity,
			Cause:    fmt.Errorf("%w after %v", fetch.ErrTimeout, e.fetchTimeout),
		}
	}
}

func (e *Engine) settle(target *record, done chan struct{}, state State, err error, archive *zip.Reader, size int) {
	target.mu.Lock()
	defer target.mu.Unlock()
	target.state = state
	target.err = err
	target.archive = archive
	target.size = size
	if state == StateFetched {
		target.fetchedAt = e.clock.Now()
	}
	target.flight = nil
	close(done)
}

// Reset returns a fetch-failed record to not-started so the next
// lookup fetches again. Trust-denied, fetched, and in-flight records
// are refused with ErrNotResettable. A failed (timed-out) trust
// evaluation for the resource is discarded as well.
func (e *Engine) Reset(identity string) error {
	target, ok := e.records[identity]
	if !ok {
		return fmt.Errorf("loader: %s is not a resolved resource", identity)
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	if target.state != StateFetchFailed {
		return fmt.Errorf("%w: %s is %s", ErrNotResettable, identity, target.state)
	}
	target.state = StateNotStarted
	target.err = nil
	if forgetful, ok := e.trust.(forgetter); ok {
		forgetful.Forget(identity)
	}
	e.logger.Info("resource record reset", "resource", identity)
	return nil
}

// RecordInfo is a snapshot of one record.
type RecordInfo struct {
	Identity  string
	State     State
	Err       error
	Size      int
	FetchedAt time.Time
	Artifacts int
}

// State returns the current state of the record for identity.
func (e *Engine) State(identity string) (State, bool) {
	target, ok := e.records[identity]
	if !ok {
		return StateNotStarted, false
	}
	target.mu.Lock()
	defer target.mu.Unlock()
	return target.state, true
}

// Records returns a snapshot of every record, sorted by identity.
func (e *Engine) Records() []RecordInfo {
	infos := make([]RecordInfo, 0, len(e.records))
	for identity, target := range e.records {
		target.mu.Lock()
		infos = append(infos, RecordInfo{
			Identity:  identity,
			State:     target.state,
			Err:       target.err,
			Size:      target.size,
			FetchedAt: target.fetchedAt,
			Artifacts: len(target.artifacts),
		})
		target.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Identity < infos[j].Identity })
	return infos
}
