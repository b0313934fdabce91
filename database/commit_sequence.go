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
	"fmt"
)

type CommitSequenceError struct {
	MetadataSeq uint64
	JournalSeq  uint64
}

func (e CommitSequenceError) Error() string {
	return fmt.Sprintf(
		"commit sequence mismatch: %d (metadata) > %d (journal)",
		e.MetadataSeq,
		e.JournalSeq,
	)
}

// checkCommitSequence compares the journal tip with the tip recorded in the
// metadata store. A journal that ran ahead belongs to a partial commit and is
// truncated, a metadata store that ran ahead cannot be repaired here
func (d *Database) checkCommitSequence() error {
	state, err := d.metadata.GetSystemState(nil)
	if err != nil {
		return err
	}
	journalSeq, err := d.journal.Tip(nil)
	if err != nil {
		return fmt.Errorf("read journal tip: %w", err)
	}
	switch {
	case journalSeq == state.TipSeq:
		return nil
	case journalSeq > state.TipSeq:
		d.logger.Warn(
			"discarding journal entries from partial commit",
			"component", "database",
			"metadata_seq", state.TipSeq,
			"journal_seq", journalSeq,
		)
		if err := d.journal.Truncate(state.TipSeq); err != nil {
			return fmt.Errorf("truncate journal: %w", err)
		}
		return nil
	default:
		return CommitSequenceError{
			MetadataSeq: state.TipSeq,
			JournalSeq:  journalSeq,
		}
	}
}
