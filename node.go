// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flightsurety

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/flightsurety/api"
	"github.com/blinklabs-io/flightsurety/database"
	"github.com/blinklabs-io/flightsurety/event"
	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/blinklabs-io/flightsurety/oracle"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	ledgerState   *ledger.LedgerState
	coordinator   *oracle.Coordinator
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	config        Config
	started       chan struct{}
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		started:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run starts all components and blocks until ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlockCacheSize: n.config.blockCacheSize,
	})
	// The database is returned alongside an error when it needs recovery, and
	// is closed by Stop either way
	n.db = db
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Load state
	state, err := ledger.NewLedgerState(
		ledger.LedgerStateConfig{
			Database:     n.db,
			EventBus:     n.eventBus,
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
			Genesis:      n.config.genesis,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	n.ledgerState = state
	// Start oracle coordinator
	if n.config.oracleEnabled {
		if err := n.startOracles(ctx); err != nil {
			return err
		}
	}
	// Start API
	if n.config.apiListenAddress != "" {
		var readiness api.Readiness
		if n.coordinator != nil {
			readiness = n.coordinator
		}
		n.api = api.New(
			api.ApiConfig{
				ListenAddress: n.config.apiListenAddress,
			},
			n.ledgerState,
			readiness,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	close(n.started)

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// startOracles starts the coordinator and answers requests left open by an
// earlier run
func (n *Node) startOracles(ctx context.Context) error {
	coordinator, err := oracle.NewCoordinator(oracle.CoordinatorConfig{
		Ledger:       n.ledgerState,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		StatusSource: n.config.statusSource,
		NodeSeed:     n.config.oracleNodeSeed,
		NodeCount:    n.config.oracleNodeCount,
		Workers:      n.config.oracleWorkers,
	})
	if err != nil {
		return fmt.Errorf("failed to create oracle coordinator: %w", err)
	}
	n.coordinator = coordinator
	if err := n.coordinator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start oracle coordinator: %w", err)
	}
	openRequests, err := n.ledgerState.OpenRequests()
	if err != nil {
		return fmt.Errorf("failed to load open oracle requests: %w", err)
	}
	for _, req := range openRequests {
		if err := n.coordinator.Submit(ctx, req); err != nil {
			return fmt.Errorf("failed to replay oracle request: %w", err)
		}
	}
	if len(openRequests) > 0 {
		n.config.logger.Info(
			fmt.Sprintf("replayed %d open oracle requests", len(openRequests)),
			"component", "node",
		)
	}
	return nil
}

// Started returns a channel that is closed once all components are running
func (n *Node) Started() <-chan struct{} {
	return n.started
}

// LedgerState returns the ledger. It is nil until the node has started
func (n *Node) LedgerState() *ledger.LedgerState {
	return n.ledgerState
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.coordinator != nil {
		n.coordinator.Stop()
	}

	// Phase 2: Flush state and close database
	if n.ledgerState != nil {
		if closeErr := n.ledgerState.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("ledger state close: %w", closeErr),
			)
		}
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 3: Cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
