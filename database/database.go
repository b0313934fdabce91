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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/flightsurety/database/badger"
	"github.com/blinklabs-io/flightsurety/database/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	DataDir        string
	BlockCacheSize uint64
}

// Database pairs the relational metadata store with the append-only journal.
// Every ledger transaction writes to both through a single Txn
type Database struct {
	logger   *slog.Logger
	metadata *sqlite.MetadataStoreSqlite
	journal  *badger.JournalStoreBadger
	dataDir  string
}

// New creates a new database instance with optional persistence using the
// provided data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadataDb, err := sqlite.New(
		sqlite.WithDataDir(config.DataDir),
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(config.PromRegistry),
	)
	if err != nil {
		if metadataDb != nil {
			_ = metadataDb.Close()
		}
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	journalOpts := []badger.JournalStoreBadgerOptionFunc{
		badger.WithDataDir(config.DataDir),
		badger.WithLogger(logger),
		badger.WithPromRegistry(config.PromRegistry),
	}
	if config.BlockCacheSize > 0 {
		journalOpts = append(
			journalOpts,
			badger.WithBlockCacheSize(config.BlockCacheSize),
		)
	}
	journalDb, err := badger.New(journalOpts...)
	if err != nil {
		_ = metadataDb.Close()
		return nil, fmt.Errorf("open journal store: %w", err)
	}
	db := &Database{
		logger:   logger,
		metadata: metadataDb,
		journal:  journalDb,
		dataDir:  config.DataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

func (d *Database) init() error {
	return d.checkCommitSequence()
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store
func (d *Database) Metadata() *sqlite.MetadataStoreSqlite {
	return d.metadata
}

// Journal returns the underlying journal store
func (d *Database) Journal() *badger.JournalStoreBadger {
	return d.journal
}

// Transaction starts a new read-write transaction spanning both stores
func (d *Database) Transaction() *Txn {
	return NewTxn(d)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	err = errors.Join(err, d.metadata.Close())
	err = errors.Join(err, d.journal.Close())
	return err
}
