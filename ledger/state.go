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

package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/flightsurety/database"
	"github.com/blinklabs-io/flightsurety/database/models"
	"github.com/blinklabs-io/flightsurety/database/sqlite"
	"github.com/blinklabs-io/flightsurety/event"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type LedgerStateConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// Database is used as-is when set, otherwise one is opened in DataDir
	Database *database.Database
	DataDir  string
	Genesis  GenesisConfig
}

// GenesisConfig describes the state created the first time a ledger is opened
type GenesisConfig struct {
	Owner               Address `yaml:"owner"`
	FirstAirline        Address `yaml:"firstAirline"`
	FirstAirlineName    string  `yaml:"firstAirlineName"`
	FirstAirlineFunding uint64  `yaml:"firstAirlineFunding"`
}

// LedgerState owns all airline, flight, policy and oracle state. Every
// mutating call runs as one serialized database transaction and is recorded
// in the journal
type LedgerState struct {
	mu      sync.Mutex
	config  LedgerStateConfig
	db      *database.Database
	logger  *slog.Logger
	metrics stateMetrics
	ownsDb  bool
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	ls := &LedgerState{
		config: cfg,
		logger: cfg.Logger,
		db:     cfg.Database,
	}
	ls.metrics.init(cfg.PromRegistry)
	if ls.db == nil {
		db, err := database.New(&database.Config{
			DataDir:      cfg.DataDir,
			Logger:       cfg.Logger,
			PromRegistry: cfg.PromRegistry,
		})
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("open database: %w", err)
		}
		ls.db = db
		ls.ownsDb = true
	}
	if err := ls.loadGenesis(); err != nil {
		_ = ls.Close()
		return nil, err
	}
	if err := ls.refreshMetrics(); err != nil {
		_ = ls.Close()
		return nil, err
	}
	return ls, nil
}

// Close releases the database if the ledger opened it
func (ls *LedgerState) Close() error {
	if ls.ownsDb {
		return ls.db.Close()
	}
	return nil
}

// Database returns the underlying database
func (ls *LedgerState) Database() *database.Database {
	return ls.db
}

type genesisPayload struct {
	Owner               string
	FirstAirline        string
	FirstAirlineName    string
	FirstAirlineFunding uint64
}

func (ls *LedgerState) loadGenesis() error {
	state, err := ls.db.Metadata().GetSystemState(nil)
	if err != nil {
		return err
	}
	if state.Initialized {
		return nil
	}
	genesis := ls.config.Genesis
	if genesis.Owner == "" || genesis.FirstAirline == "" {
		return fmt.Errorf("%w: owner and first airline are required", ErrInvalidGenesis)
	}
	if genesis.FirstAirlineFunding > 0 &&
		genesis.FirstAirlineFunding < MinimumFunding {
		return fmt.Errorf("%w: first airline funding below minimum", ErrInvalidGenesis)
	}
	payload := genesisPayload{
		Owner:               string(genesis.Owner),
		FirstAirline:        string(genesis.FirstAirline),
		FirstAirlineName:    genesis.FirstAirlineName,
		FirstAirlineFunding: genesis.FirstAirlineFunding,
	}
	err = ls.apply(
		"genesis",
		genesis.Owner,
		payload,
		false,
		func(tx *ledgerTxn) error {
			tx.state.Owner = string(genesis.Owner)
			tx.state.Operational = true
			tx.state.Initialized = true
			airline := &models.Airline{
				Address:      string(genesis.FirstAirline),
				Name:         genesis.FirstAirlineName,
				IsRegistered: true,
				AddedSeq:     tx.seq,
			}
			if genesis.FirstAirlineFunding > 0 {
				airline.IsFunded = true
				airline.FundedAmount = genesis.FirstAirlineFunding
				tx.state.Treasury = genesis.FirstAirlineFunding
			}
			if err := tx.metadata().CreateAirline(airline, tx.handle()); err != nil {
				return err
			}
			tx.publish(AirlineRegisteredEventType, AirlineRegisteredEvent{
				Airline: genesis.FirstAirline,
				Name:    genesis.FirstAirlineName,
				Seq:     tx.seq,
			})
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}
	ls.logger.Info(
		"ledger genesis applied",
		"component", "ledger",
		"owner", genesis.Owner,
		"first_airline", genesis.FirstAirline,
	)
	return nil
}

func (ls *LedgerState) refreshMetrics() error {
	state, err := ls.db.Metadata().GetSystemState(nil)
	if err != nil {
		return err
	}
	airlines, err := ls.db.Metadata().CountRegisteredAirlines(nil)
	if err != nil {
		return err
	}
	oracles, err := ls.db.Metadata().CountOracleNodes(nil)
	if err != nil {
		return err
	}
	ls.metrics.airlines.Set(float64(airlines))
	ls.metrics.oracleNodes.Set(float64(oracles))
	ls.updateStateMetrics(state)
	return nil
}

func (ls *LedgerState) updateStateMetrics(state *models.SystemState) {
	ls.metrics.treasury.Set(float64(state.Treasury))
	ls.metrics.journalTip.Set(float64(state.TipSeq))
	if state.Operational {
		ls.metrics.operational.Set(1)
	} else {
		ls.metrics.operational.Set(0)
	}
}

// Tip returns the sequence number and hash of the last committed ledger call
func (ls *LedgerState) Tip() (uint64, []byte, error) {
	state, err := ls.db.Metadata().GetSystemState(nil)
	if err != nil {
		return 0, nil, err
	}
	return state.TipSeq, state.TipHash, nil
}

// Owner returns the address allowed to change the operating status
func (ls *LedgerState) Owner() (Address, error) {
	state, err := ls.db.Metadata().GetSystemState(nil)
	if err != nil {
		return "", err
	}
	return Address(state.Owner), nil
}

// Treasury returns the funds held by the ledger
func (ls *LedgerState) Treasury() (uint64, error) {
	state, err := ls.db.Metadata().GetSystemState(nil)
	if err != nil {
		return 0, err
	}
	return state.Treasury, nil
}

// ledgerTxn is the context a single ledger call runs in
type ledgerTxn struct {
	ls     *LedgerState
	txn    *database.Txn
	state  *models.SystemState
	sender Address
	seq    uint64
	events []event.Event
	after  []func()
}

func (tx *ledgerTxn) metadata() *sqlite.MetadataStoreSqlite {
	return tx.ls.db.Metadata()
}

func (tx *ledgerTxn) handle() *gorm.DB {
	return tx.txn.Metadata()
}

// publish queues an event to be published once the call commits
func (tx *ledgerTxn) publish(eventType event.EventType, data any) {
	tx.events = append(tx.events, event.NewEvent(eventType, data))
}

// onCommit queues a function to run once the call commits
func (tx *ledgerTxn) onCommit(fn func()) {
	tx.after = append(tx.after, fn)
}

func (tx *ledgerTxn) addTreasury(amount uint64) error {
	sum, err := checkedAdd(tx.state.Treasury, amount)
	if err != nil {
		return fmt.Errorf("treasury: %w", err)
	}
	tx.state.Treasury = sum
	return nil
}

// apply runs fn as one ledger call. The call is journaled and committed only
// if fn succeeds, and queued events are published after the commit
func (ls *LedgerState) apply(
	op string,
	sender Address,
	payload any,
	requireOperational bool,
	fn func(*ledgerTxn) error,
) error {
	if err := sender.validate(); err != nil {
		ls.metrics.opsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("sender: %w", err)
	}
	ls.mu.Lock()
	tx := &ledgerTxn{
		ls:     ls,
		sender: sender,
	}
	err := ls.db.Transaction().Do(func(txn *database.Txn) error {
		tx.txn = txn
		state, err := ls.db.Metadata().GetSystemState(txn.Metadata())
		if err != nil {
			return err
		}
		tx.state = state
		tx.seq = state.TipSeq + 1
		if requireOperational && !state.Operational {
			return ErrNotOperational
		}
		if err := fn(tx); err != nil {
			return err
		}
		if err := ls.db.Metadata().SetSystemState(tx.state, txn.Metadata()); err != nil {
			return err
		}
		entry, err := txn.AppendJournal(op, string(sender), payload)
		if err != nil {
			return err
		}
		if entry.Seq != tx.seq {
			return fmt.Errorf(
				"journal sequence mismatch: expected %d, got %d",
				tx.seq,
				entry.Seq,
			)
		}
		tx.state.TipSeq = entry.Seq
		tx.state.TipHash = entry.Hash
		return nil
	})
	ls.mu.Unlock()
	if err != nil {
		ls.metrics.opsTotal.WithLabelValues(op, "error").Inc()
		var commitErr *database.CommitError
		if errors.As(err, &commitErr) {
			ls.logger.Error(
				"failed to commit ledger call",
				"component", "ledger",
				"op", op,
				"error", err,
			)
		} else {
			ls.logger.Debug(
				"ledger call rejected",
				"component", "ledger",
				"op", op,
				"sender", sender,
				"error", err,
			)
		}
		return err
	}
	ls.metrics.opsTotal.WithLabelValues(op, "ok").Inc()
	ls.updateStateMetrics(tx.state)
	for _, fn := range tx.after {
		fn()
	}
	if ls.config.EventBus != nil {
		for _, evt := range tx.events {
			ls.config.EventBus.Publish(evt.Type, evt)
		}
	}
	return nil
}
