// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// WindowState is the lifecycle state of a collection window.
type WindowState int

const (
	// StateIdle is the initial state: no events are accepted yet.
	StateIdle WindowState = iota
	// StateCollecting accepts events and spawns per-script tasks.
	StateCollecting
	// StateDraining accepts no new events and awaits in-flight tasks.
	StateDraining
	// StateClosed is terminal: the artifact list is sealed.
	StateClosed
)

// String returns the lowercase state name for logs and errors.
func (s WindowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrWindowOpen is returned by Artifacts when the window has not
// reached Closed. The accessor fails fast rather than blocking — the
// orchestrator that calls Stop is the same one that reads artifacts,
// so an early read is a sequencing bug worth surfacing immediately.
var ErrWindowOpen = errors.New("collector: artifact list requested before window closed")

// Config holds the parameters for creating a Collector. Fetcher is
// required; everything else has a working default.
type Config struct {
	// Fetcher is the injected network capability used for remote
	// source-map locators.
	Fetcher ResourceFetcher

	// Accept optionally filters scripts by URL before any work is
	// done for them. A script rejected by Accept produces no
	// Artifact, exactly like a script with no locator. Nil accepts
	// everything.
	Accept func(scriptURL string) bool

	// Logger receives operational messages. If nil, logging is
	// discarded.
	Logger *slog.Logger
}

// Collector runs one collection window over a stream of script-parsed
// events. All methods are safe for concurrent use; the event source
// may push from any goroutine.
type Collector struct {
	fetcher *Fetcher
	accept  func(string) bool
	logger  *slog.Logger

	mu    sync.Mutex
	state WindowState
	ctx   context.Context
	slots []*Artifact
	tasks sync.WaitGroup
}

// New creates a Collector in the Idle state.
func New(cfg Config) (*Collector, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("collector: Fetcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{
		fetcher: NewFetcher(cfg.Fetcher),
		accept:  cfg.Accept,
		logger:  logger,
	}, nil
}

// Start opens the collection window. ctx is handed to every fetch the
// window performs; cancelling it does not abort the window's state
// machine, it only propagates to the injected fetch capability.
// Start must be called exactly once, before Stop.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return fmt.Errorf("collector: start on %s window", c.state)
	}
	c.state = StateCollecting
	c.ctx = ctx
	c.logger.Info("collection window opened")
	return nil
}

// OnScriptParsed records a script-parsed event. Scripts with an empty
// locator (and scripts rejected by the Accept filter) are skipped
// entirely — no slot, no Artifact. Every other event reserves the
// next arrival-order slot and spawns an independent task that
// resolves, fetches, and parses the map, then fills the slot. Events
// arriving outside the Collecting state are dropped; an event racing
// the stop signal is expected traffic, not an error.
func (c *Collector) OnScriptParsed(event ScriptParsedEvent) {
	if event.SourceMapURL == "" {
		return
	}
	if c.accept != nil && !c.accept(event.URL) {
		c.logger.Debug("script excluded by filter", "script_url", event.URL)
		return
	}

	c.mu.Lock()
	if c.state != StateCollecting {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("script event dropped outside collection window",
			"script_url", event.URL,
			"state", state.String(),
		)
		return
	}
	index := len(c.slots)
	c.slots = append(c.slots, nil)
	ctx := c.ctx
	c.tasks.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.tasks.Done()
		artifact := c.process(ctx, event)
		c.mu.Lock()
		c.slots[index] = &artifact
		c.mu.Unlock()
	}()
}

// process runs the resolve → fetch → parse pipeline for one script.
// Every failure is recovered here, into the Artifact's ErrorMessage —
// nothing a single script does can affect the window or its siblings.
func (c *Collector) process(ctx context.Context, event ScriptParsedEvent) Artifact {
	artifact := Artifact{ScriptURL: event.URL}

	locator, err := Resolve(event.URL, event.SourceMapURL)
	if err != nil {
		artifact.ErrorMessage = err.Error()
		c.logger.Warn("source map resolution failed",
			"script_url", event.URL,
			"locator", event.SourceMapURL,
		)
		return artifact
	}
	if locator.Kind == LocatorRemote {
		artifact.SourceMapURL = locator.URL
	}

	content, err := c.fetcher.Fetch(ctx, locator)
	if err != nil {
		artifact.ErrorMessage = err.Error()
		c.logger.Warn("source map fetch failed",
			"script_url", event.URL,
			"map_url", artifact.SourceMapURL,
			"error", err.Error(),
		)
		return artifact
	}

	parsed, err := ParseMap(content)
	if err != nil {
		artifact.ErrorMessage = err.Error()
		c.logger.Warn("source map parse failed",
			"script_url", event.URL,
			"error", err.Error(),
		)
		return artifact
	}

	artifact.Map = parsed
	c.logger.Debug("source map collected",
		"script_url", event.URL,
		"map_url", artifact.SourceMapURL,
	)
	return artifact
}

// Stop closes the window to new events and drains: it blocks until
// every in-flight task has written its slot, then seals the window.
// In-flight fetches are never cancelled — a hung fetch capability
// hangs the drain, which is the capability's timeout policy to
// prevent. Stop must be called exactly once, after Start.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if c.state != StateCollecting {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("collector: stop on %s window", state)
	}
	c.state = StateDraining
	pending := len(c.slots)
	c.mu.Unlock()

	c.logger.Info("collection window draining", "scripts", pending)
	c.tasks.Wait()

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.logger.Info("collection window closed", "scripts", pending)
	return nil
}

// State returns the window's current lifecycle state.
func (c *Collector) State() WindowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Artifacts returns the sealed artifact list in event-arrival order.
// It fails fast with ErrWindowOpen if the window has not closed yet
// (see the var's comment for why fail-fast over blocking). The
// returned slice is a copy — the sealed window is never mutated.
func (c *Collector) Artifacts() ([]Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return nil, ErrWindowOpen
	}
	return assembleArtifacts(c.slots), nil
}
