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
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"gorm.io/gorm"
)

// CommitError reports a failure to commit one side of a transaction. When
// Partial is set, the journal committed but the metadata did not
type CommitError struct {
	Err     error
	Stage   string
	Partial bool
}

func (e *CommitError) Error() string {
	if e.Partial {
		return fmt.Sprintf(
			"partial commit: %s commit failed after journal commit: %s",
			e.Stage,
			e.Err,
		)
	}
	return fmt.Sprintf("%s commit failed: %s", e.Stage, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Txn coordinates a metadata transaction and a journal transaction so that
// they commit or roll back together
type Txn struct {
	db          *Database
	metadataTxn *gorm.DB
	journalTxn  *badgerdb.Txn
	lock        sync.Mutex
	finished    bool
}

func NewTxn(db *Database) *Txn {
	return &Txn{
		db:          db,
		metadataTxn: db.Metadata().Transaction(),
		journalTxn:  db.Journal().NewTransaction(true),
	}
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() *gorm.DB {
	return t.metadataTxn
}

// Journal returns the journal transaction handle
func (t *Txn) Journal() *badgerdb.Txn {
	return t.journalTxn
}

// Do executes the specified function in the context of the transaction. Any
// errors returned will result in the transaction being rolled back
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return err
	}
	return nil
}

// Commit commits the journal first and then the metadata. A journal entry
// without matching metadata is discarded the next time the database opens
func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.metadataTxn.Error; err != nil {
		t.journalTxn.Discard()
		_ = t.metadataTxn.Rollback()
		return &CommitError{Stage: "metadata", Err: err}
	}
	if err := t.journalTxn.Commit(); err != nil {
		_ = t.metadataTxn.Rollback()
		return &CommitError{Stage: "journal", Err: err}
	}
	if err := t.metadataTxn.Commit().Error; err != nil {
		t.db.logger.Error(
			"partial commit: journal committed, metadata failed",
			"component", "database",
			"error", err,
		)
		_ = t.metadataTxn.Rollback()
		return &CommitError{Stage: "metadata", Err: err, Partial: true}
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	t.journalTxn.Discard()
	if err := t.metadataTxn.Rollback().Error; err != nil &&
		!errors.Is(err, gorm.ErrInvalidTransaction) {
		return fmt.Errorf("metadata rollback: %w", err)
	}
	return nil
}

// Release rolls back the transaction if it has not finished. Errors are
// logged, making this safe for deferred calls
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
		)
	}
}
