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

package badger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	journalEntryPrefix = []byte("je")
	journalTipKey      = []byte("jtip")
)

// ErrEntryNotFound is returned when no journal entry exists for a sequence number
var ErrEntryNotFound = errors.New("journal entry not found")

// JournalStoreBadger keeps the append-only transaction journal in badger.
// Entries are keyed by their sequence number so that iteration yields them
// in commit order
type JournalStoreBadger struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	metrics        *journalMetrics
	gcTicker       *time.Ticker
	gcStopCh       chan struct{}
	dataDir        string
	gcWg           sync.WaitGroup
	blockCacheSize uint64
	indexCacheSize uint64
	gcEnabled      bool
}

// New creates a new journal store
func New(opts ...JournalStoreBadgerOptionFunc) (*JournalStoreBadger, error) {
	d := &JournalStoreBadger{
		gcEnabled:      true,
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var badgerOpts badger.Options
	if d.dataDir == "" {
		// No dataDir, use in-memory config
		badgerOpts = badger.DefaultOptions("").
			WithLogger(NewBadgerLogger(d.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
		d.gcEnabled = false
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(d.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(d.dataDir, "journal")).
			WithLogger(NewBadgerLogger(d.logger)).
			WithLoggingLevel(badger.WARNING).
			WithBlockCacheSize(int64(d.blockCacheSize)). //nolint:gosec // cache size is operator controlled
			WithIndexCacheSize(int64(d.indexCacheSize)). //nolint:gosec // cache size is operator controlled
			WithCompression(options.Snappy)
	}
	journalDb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	d.db = journalDb
	if d.promRegistry != nil {
		d.metrics = newJournalMetrics(d.promRegistry)
	}
	if d.gcEnabled {
		d.gcTicker = time.NewTicker(5 * time.Minute)
		d.gcStopCh = make(chan struct{})
		d.gcWg.Add(1)
		go d.journalGc(d.gcTicker, d.gcStopCh)
	}
	return d, nil
}

func (d *JournalStoreBadger) journalGc(t *time.Ticker, stop <-chan struct{}) {
	defer d.gcWg.Done()
	for {
		select {
		case <-t.C:
			for {
				err := d.db.RunValueLogGC(0.5)
				if err == nil {
					// Run it again if it just ran successfully
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					d.logger.Warn(
						fmt.Sprintf("journal DB: GC failure: %s", err),
						"component", "database",
					)
				}
				break
			}
		case <-stop:
			return
		}
	}
}

// Close stops background GC and closes the underlying badger database
func (d *JournalStoreBadger) Close() error {
	if d.gcTicker != nil {
		d.gcTicker.Stop()
		close(d.gcStopCh)
		d.gcWg.Wait()
		d.gcTicker = nil
	}
	return d.db.Close()
}

// DB returns the underlying badger handle
func (d *JournalStoreBadger) DB() *badger.DB {
	return d.db
}

// NewTransaction starts a badger transaction
func (d *JournalStoreBadger) NewTransaction(readWrite bool) *badger.Txn {
	return d.db.NewTransaction(readWrite)
}

func entryKey(seq uint64) []byte {
	key := make([]byte, len(journalEntryPrefix)+8)
	copy(key, journalEntryPrefix)
	binary.BigEndian.PutUint64(key[len(journalEntryPrefix):], seq)
	return key
}

// Append stores an encoded entry under seq and moves the tip to it
func (d *JournalStoreBadger) Append(
	txn *badger.Txn,
	seq uint64,
	data []byte,
) error {
	if err := txn.Set(entryKey(seq), data); err != nil {
		return fmt.Errorf("set journal entry %d: %w", seq, err)
	}
	tip := make([]byte, 8)
	binary.BigEndian.PutUint64(tip, seq)
	if err := txn.Set(journalTipKey, tip); err != nil {
		return fmt.Errorf("set journal tip: %w", err)
	}
	if d.metrics != nil {
		d.metrics.appendsTotal.Inc()
		d.metrics.bytesTotal.Add(float64(len(data)))
	}
	return nil
}

// Get returns the encoded entry stored under seq
func (d *JournalStoreBadger) Get(txn *badger.Txn, seq uint64) ([]byte, error) {
	if txn == nil {
		txn = d.db.NewTransaction(false)
		defer txn.Discard()
	}
	item, err := txn.Get(entryKey(seq))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Tip returns the sequence number of the last appended entry, or 0 for an
// empty journal
func (d *JournalStoreBadger) Tip(txn *badger.Txn) (uint64, error) {
	if txn == nil {
		txn = d.db.NewTransaction(false)
		defer txn.Discard()
	}
	item, err := txn.Get(journalTipKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid journal tip length %d", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

// Iterate calls fn for every entry with a sequence number of at least
// fromSeq, in order. Iteration stops at the first error returned by fn
func (d *JournalStoreBadger) Iterate(
	fromSeq uint64,
	fn func(seq uint64, data []byte) error,
) error {
	return d.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = journalEntryPrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(entryKey(fromSeq)); it.ValidForPrefix(journalEntryPrefix); it.Next() {
			item := it.Item()
			key := item.Key()
			seq := binary.BigEndian.Uint64(key[len(journalEntryPrefix):])
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(seq, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Truncate removes every entry after seq and moves the tip back to seq. It
// is used to discard journal entries whose metadata never committed
func (d *JournalStoreBadger) Truncate(seq uint64) error {
	var keys [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = journalEntryPrefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(entryKey(seq + 1)); it.ValidForPrefix(journalEntryPrefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		if seq == 0 {
			return txn.Delete(journalTipKey)
		}
		tip := make([]byte, 8)
		binary.BigEndian.PutUint64(tip, seq)
		return txn.Set(journalTipKey, tip)
	})
}
