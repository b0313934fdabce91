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

package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/blinklabs-io/flightsurety/event"
	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNodeCount = 20
	DefaultWorkers   = 8
	DefaultNodeSeed  = "oracle"
)

// Ledger is the subset of the ledger the coordinator drives
type Ledger interface {
	RegisterOracle(
		sender ledger.Address,
		fee uint64,
	) ([ledger.OracleIndexCount]uint8, error)
	GetOracleIndexes(
		address ledger.Address,
	) ([ledger.OracleIndexCount]uint8, error)
	SubmitOracleResponse(
		sender ledger.Address,
		index uint8,
		key ledger.FlightKey,
		code ledger.StatusCode,
	) (ledger.SubmitResult, error)
}

type CoordinatorConfig struct {
	Ledger       Ledger
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// StatusSource defaults to reporting StatusLateAirline
	StatusSource StatusSource
	NodeSeed     string
	NodeCount    int
	Workers      int
	Fee          uint64
}

// Node is an oracle identity managed by the coordinator
type Node struct {
	Address ledger.Address
	Indexes [ledger.OracleIndexCount]uint8
}

// HasIndex reports whether the node may answer requests issued with idx
func (n Node) HasIndex(idx uint8) bool {
	for _, i := range n.Indexes {
		if i == idx {
			return true
		}
	}
	return false
}

// Coordinator runs a pool of oracle nodes. It registers them with the
// ledger, listens for status requests and submits a response for every node
// whose indices include the request index
type Coordinator struct {
	config  CoordinatorConfig
	logger  *slog.Logger
	metrics coordinatorMetrics
	nodes   []Node
	sub     *event.Subscription
	cancel  context.CancelFunc
	doneCh  chan struct{}
	mu      sync.Mutex
	ready   atomic.Bool
}

func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("oracle coordinator: ledger is required")
	}
	if cfg.EventBus == nil {
		return nil, errors.New("oracle coordinator: event bus is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.StatusSource == nil {
		cfg.StatusSource = FixedStatus(ledger.StatusLateAirline)
	}
	if cfg.NodeCount <= 0 {
		cfg.NodeCount = DefaultNodeCount
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.NodeSeed == "" {
		cfg.NodeSeed = DefaultNodeSeed
	}
	if cfg.Fee == 0 {
		cfg.Fee = ledger.OracleRegistrationFee
	}
	c := &Coordinator{
		config: cfg,
		logger: cfg.Logger,
	}
	c.metrics.init(cfg.PromRegistry)
	return c, nil
}

// Start registers the node pool and begins answering requests. Requests
// published after Start returns are never missed
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doneCh != nil {
		return errors.New("oracle coordinator already started")
	}
	nodes := c.registerNodes()
	if len(nodes) == 0 {
		return errors.New("oracle coordinator: no nodes could be registered")
	}
	c.nodes = nodes
	c.metrics.nodes.Set(float64(len(nodes)))
	c.sub = c.config.EventBus.NewSubscription(ledger.OracleRequestEventType)
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.doneCh = make(chan struct{})
	go c.run(runCtx, c.sub, c.doneCh)
	c.ready.Store(true)
	c.logger.Info(
		fmt.Sprintf("oracle coordinator started with %d nodes", len(nodes)),
		"component", "oracle",
	)
	return nil
}

// Stop stops answering requests and waits for in-flight submissions
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doneCh == nil {
		return
	}
	c.ready.Store(false)
	c.cancel()
	c.sub.Close()
	<-c.doneCh
	c.doneCh = nil
	c.logger.Debug(
		"oracle coordinator stopped",
		"component", "oracle",
	)
}

// Ready reports whether the nodes are registered and requests are being
// listened for
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Nodes returns the registered nodes
func (c *Coordinator) Nodes() []Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := make([]Node, len(c.nodes))
	copy(ret, c.nodes)
	return ret
}

// registerNodes registers each node identity and fetches its indices.
// Identities left over from an earlier run keep their indices. Failures are
// logged and the node is skipped
func (c *Coordinator) registerNodes() []Node {
	nodes := make([]Node, 0, c.config.NodeCount)
	for i := range c.config.NodeCount {
		addr := ledger.NewAddress(fmt.Sprintf("%s-%d", c.config.NodeSeed, i))
		_, err := c.config.Ledger.RegisterOracle(addr, c.config.Fee)
		if err != nil && !errors.Is(err, ledger.ErrOracleAlreadyRegistered) {
			c.metrics.registrationErrs.Inc()
			c.logger.Error(
				"failed to register oracle node",
				"component", "oracle",
				"oracle", addr,
				"error", err,
			)
			continue
		}
		indexes, err := c.config.Ledger.GetOracleIndexes(addr)
		if err != nil {
			c.metrics.registrationErrs.Inc()
			c.logger.Error(
				"failed to fetch oracle indexes",
				"component", "oracle",
				"oracle", addr,
				"error", err,
			)
			continue
		}
		c.logger.Debug(
			"oracle node registered",
			"component", "oracle",
			"oracle", addr,
			"indexes", indexes,
		)
		nodes = append(nodes, Node{Address: addr, Indexes: indexes})
	}
	return nodes
}

func (c *Coordinator) run(
	ctx context.Context,
	sub *event.Subscription,
	doneCh chan struct{},
) {
	defer close(doneCh)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for evt := range sub.Events(ctx) {
		req, ok := evt.Data.(ledger.OracleRequestEvent)
		if !ok {
			c.logger.Warn(
				fmt.Sprintf("unexpected event data type %T", evt.Data),
				"component", "oracle",
			)
			continue
		}
		c.dispatch(gctx, g, req)
	}
	_ = g.Wait()
}

// dispatch submits one response per matching node through the worker pool
func (c *Coordinator) dispatch(
	ctx context.Context,
	g *errgroup.Group,
	req ledger.OracleRequestEvent,
) {
	c.metrics.requests.Inc()
	c.logger.Debug(
		"oracle request received",
		"component", "oracle",
		"flight", req.Key.String(),
		"index", req.Index,
	)
	for _, node := range c.nodes {
		if !node.HasIndex(req.Index) {
			continue
		}
		g.Go(func() error {
			c.submit(ctx, node, req)
			return nil
		})
	}
}

func (c *Coordinator) submit(
	ctx context.Context,
	node Node,
	req ledger.OracleRequestEvent,
) {
	if ctx.Err() != nil {
		return
	}
	code, err := c.config.StatusSource.Status(ctx, node.Address, req)
	if err != nil {
		c.metrics.submissions.WithLabelValues("error").Inc()
		c.logger.Error(
			"failed to determine flight status",
			"component", "oracle",
			"oracle", node.Address,
			"flight", req.Key.String(),
			"error", err,
		)
		return
	}
	res, err := c.config.Ledger.SubmitOracleResponse(
		node.Address,
		req.Index,
		req.Key,
		code,
	)
	if err != nil {
		c.metrics.submissions.WithLabelValues("error").Inc()
		c.logger.Error(
			"failed to submit oracle response",
			"component", "oracle",
			"oracle", node.Address,
			"flight", req.Key.String(),
			"index", req.Index,
			"error", err,
		)
		return
	}
	switch {
	case res.Duplicate:
		c.metrics.submissions.WithLabelValues("duplicate").Inc()
	default:
		c.metrics.submissions.WithLabelValues("accepted").Inc()
	}
}

// Submit answers a single request on behalf of all matching nodes and waits
// for the submissions to finish. It is used to replay requests that were
// published before the coordinator started
func (c *Coordinator) Submit(ctx context.Context, req ledger.OracleRequestEvent) error {
	c.mu.Lock()
	nodes := c.nodes
	c.mu.Unlock()
	if len(nodes) == 0 {
		return errors.New("oracle coordinator has no nodes")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for _, node := range nodes {
		if !node.HasIndex(req.Index) {
			continue
		}
		g.Go(func() error {
			c.submit(gctx, node, req)
			return nil
		})
	}
	return g.Wait()
}
