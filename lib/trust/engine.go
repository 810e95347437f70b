// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/clock"
)

// ErrAskTimeout is returned by Decide when the ask callback did not
// answer within Config.AskTimeout.
var ErrAskTimeout = errors.New("trust prompt timed out")

// AskFunc asks whether the resource may be loaded despite its signing
// status. It is called at most once per resource. The context is
// cancelled when the ask timeout expires; implementations should
// return promptly (the answer is then ignored).
type AskFunc func(ctx context.Context, identity string, signing bundle.SigningStatus) bool

// Verdict is the final, memoized answer for a resource.
type Verdict uint8

const (
	Denied Verdict = iota
	Allowed
)

func (v Verdict) String() string {
	if v == Allowed {
		return "allowed"
	}
	return "denied"
}

// Decision is a memoized trust verdict and how it was reached.
type Decision struct {
	Identity string
	Level    Level
	Signing  bundle.SigningStatus
	Verdict  Verdict

	// Asked is true when the verdict came from the ask callback.
	Asked bool

	// Reason is a short human-readable account of the verdict.
	Reason string
}

// Allowed reports whether the resource may be loaded.
func (d Decision) Allowed() bool { return d.Verdict == Allowed }

// Config holds the parameters for NewEngine.
type Config struct {
	Level Level

	// Ask answers Ask outcomes. A nil Ask denies them.
	Ask AskFunc

	// AskTimeout bounds each ask. Zero waits indefinitely.
	AskTimeout time.Duration

	// SerialAsk runs one ask at a time, for prompts that share a
	// single terminal. An ask's timeout starts when its turn comes,
	// not while it waits behind another question. Resources that need
	// no ask are unaffected.
	SerialAsk bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// Engine memoizes trust decisions for one launch. It is safe for
// concurrent use.
type Engine struct {
	level      Level
	ask        AskFunc
	askTimeout time.Duration
	clock      clock.Clock
	logger     *slog.Logger

	// askTurn is a one-slot semaphore held for the life of each ask
	// when asks are serial; nil otherwise.
	askTurn chan struct{}

	mu      sync.Mutex
	entries map[decisionKey]*entry
}

type decisionKey struct {
	identity string
	level    Level
}

// entry is one key's decision. done is closed once decision or err
// is set; neither changes afterwards.
type entry struct {
	done     chan struct{}
	decision Decision
	err      error
}

// NewEngine returns an engine with the given configuration. The level
// cannot change for the lifetime of the engine.
func NewEngine(config Config) (*Engine, error) {
	if !config.Level.Valid() {
		return nil, fmt.Errorf("trust: invalid security level %d", uint8(config.Level))
	}
	if config.AskTimeout < 0 {
		return nil, fmt.Errorf("trust: negative ask timeout %v", config.AskTimeout)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := &Engine{
		level:      config.Level,
		ask:        config.Ask,
		askTimeout: config.AskTimeout,
		clock:      clock.OrReal(config.Clock),
		logger:     logger,
		entries:    make(map[decisionKey]*entry),
	}
	if config.SerialAsk {
		engine.askTurn = make(chan struct{}, 1)
	}
	return engine, nil
}

// Level returns the engine's security level.
func (e *Engine) Level() Level { return e.level }

// Decide returns the verdict for resource, computing it on first use.
//
// Concurrent callers for the same resource share one evaluation. If
// ctx is cancelled while another evaluation (typically a prompt) is in
// progress, Decide returns ctx.Err() and the evaluation continues for
// the remaining and future callers. An expired ask timeout returns
// ErrAskTimeout, now and on every later call.
func (e *Engine) Decide(ctx context.Context, resource bundle.Resource) (Decision, error) {
	key := decisionKey{identity: resource.Identity, level: e.level}

	e.mu.Lock()
	current, exists := e.entries[key]
	if !exists {
		current = &entry{done: make(chan struct{})}
		e.entries[key] = current
	}
	e.mu.Unlock()

	if !exists {
		go e.evaluate(context.WithoutCancel(ctx), current, resource)
	}

	select {
	case <-current.done:
		return current.decision, current.err
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// evaluate computes one entry's decision and closes its done channel.
func (e *Engine) evaluate(ctx context.Context, target *entry, resource bundle.Resource) {
	defer close(target.done)

	decision := Decision{
		Identity: resource.Identity,
		Level:    e.level,
		Signing:  resource.Signing.Effective(),
	}

	switch Evaluate(e.level, resource.Signing) {
	case Allow:
		decision.Verdict = Allowed
		decision.Reason = fmt.Sprintf("%s permits %s resources", e.level, decision.Signing)
	case Deny:
		decision.Verdict = Denied
		decision.Reason = fmt.Sprintf("%s refuses %s resources", e.level, decision.Signing)
	case Ask:
		if e.ask == nil {
			decision.Verdict = Denied
			decision.Reason = "confirmation required but no prompt is available"
			break
		}
		answer, err := e.askWithTimeout(ctx, resource.Identity, decision.Signing)
		if err != nil {
			target.err = err
			e.logger.Warn("trust prompt failed",
				"resource", resource.Identity,
				"level", e.level.String(),
				"error", err,
			)
			return
		}
		decision.Asked = true
		if answer {
			decision.Verdict = Allowed
			decision.Reason = "accepted at prompt"
		} else {
			decision.Verdict = Denied
			decision.Reason = "declined at prompt"
		}
	}

	target.decision = decision
	e.logger.Info("trust decision",
		"resource", resource.Identity,
		"level", e.level.String(),
		"signing", decision.Signing.String(),
		"verdict", decision.Verdict.String(),
		"asked", decision.Asked,
	)
}

func (e *Engine) askWithTimeout(ctx context.Context, identity string, signing bundle.SigningStatus) (bool, error) {
	if e.askTurn != nil {
		e.askTurn <- struct{}{}
	}
	askContext, cancel := context.WithCancel(ctx)
	defer cancel()

	// The turn is released when the AskFunc returns, which may be
	// after a timeout has already been reported.
	answer := make(chan bool, 1)
	go func() {
		yes := e.ask(askContext, identity, signing)
		if e.askTurn != nil {
			<-e.askTurn
		}
		answer <- yes
	}()

	var expired <-chan time.Time
	if e.askTimeout > 0 {
		expired = e.clock.After(e.askTimeout)
	}
	select {
	case yes := <-answer:
		return yes, nil
	case <-expired:
		return false, fmt.Errorf("asking about %s: %w after %v", identity, ErrAskTimeout, e.askTimeout)
	}
}

// Forget discards a failed (timed-out) evaluation for identity so the
// next Decide asks again. Settled verdicts and evaluations still in
// progress are kept. It reports whether anything was discarded.
func (e *Engine) Forget(identity string) bool {
	key := decisionKey{identity: identity, level: e.level}

	e.mu.Lock()
	defer e.mu.Unlock()
	current, exists := e.entries[key]
	if !exists {
		return false
	}
	select {
	case <-current.done:
	default:
		return false
	}
	if current.err == nil {
		return false
	}
	delete(e.entries, key)
	return true
}

// Decisions returns the settled verdicts, sorted by identity.
func (e *Engine) Decisions() []Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	var decisions []Decision
	for _, current := range e.entries {
		select {
		case <-current.done:
			if current.err == nil {
				decisions = append(decisions, current.decision)
			}
		default:
		}
	}
	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].Identity < decisions[j].Identity
	})
	return decisions
}
