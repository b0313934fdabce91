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
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// JournalEntry is one committed ledger call. Hash chains the entry to its
// predecessor and covers everything but the wall-clock time, so replaying
// the same calls always yields the same hashes
type JournalEntry struct {
	_        struct{} `cbor:",toarray"`
	Seq      uint64
	Op       string
	Sender   string
	Payload  cbor.RawMessage
	PrevHash []byte
	Hash     []byte
	Time     int64
}

type journalHashInput struct {
	_        struct{} `cbor:",toarray"`
	PrevHash []byte
	Seq      uint64
	Op       string
	Sender   string
	Payload  cbor.RawMessage
}

func computeEntryHash(
	prevHash []byte,
	seq uint64,
	op string,
	sender string,
	payload cbor.RawMessage,
) ([]byte, error) {
	if len(prevHash) == 0 {
		prevHash = nil
	}
	data, err := cbor.Marshal(journalHashInput{
		PrevHash: prevHash,
		Seq:      seq,
		Op:       op,
		Sender:   sender,
		Payload:  payload,
	})
	if err != nil {
		return nil, err
	}
	sum := blake2b.Sum256(data)
	return sum[:], nil
}

// Verify checks that the entry hash matches its contents
func (e *JournalEntry) Verify() error {
	hash, err := computeEntryHash(e.PrevHash, e.Seq, e.Op, e.Sender, e.Payload)
	if err != nil {
		return err
	}
	if string(hash) != string(e.Hash) {
		return fmt.Errorf("journal entry %d: hash mismatch", e.Seq)
	}
	return nil
}

// DecodePayload decodes the entry payload into dst
func (e *JournalEntry) DecodePayload(dst any) error {
	return cbor.Unmarshal(e.Payload, dst)
}

// AppendJournal records a ledger call in the journal and advances the tip
// stored in the system state. Both writes belong to the transaction
func (t *Txn) AppendJournal(
	op string,
	sender string,
	payload any,
) (*JournalEntry, error) {
	metadata := t.db.Metadata()
	state, err := metadata.GetSystemState(t.metadataTxn)
	if err != nil {
		return nil, err
	}
	payloadCbor, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode journal payload: %w", err)
	}
	seq := state.TipSeq + 1
	hash, err := computeEntryHash(state.TipHash, seq, op, sender, payloadCbor)
	if err != nil {
		return nil, fmt.Errorf("hash journal entry: %w", err)
	}
	entry := &JournalEntry{
		Seq:      seq,
		Op:       op,
		Sender:   sender,
		Payload:  payloadCbor,
		PrevHash: state.TipHash,
		Hash:     hash,
		Time:     time.Now().UnixMilli(),
	}
	entryCbor, err := cbor.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode journal entry: %w", err)
	}
	if err := t.db.Journal().Append(t.journalTxn, seq, entryCbor); err != nil {
		return nil, err
	}
	state.TipSeq = seq
	state.TipHash = hash
	if err := metadata.SetSystemState(state, t.metadataTxn); err != nil {
		return nil, err
	}
	return entry, nil
}

// JournalEntry returns the committed entry with the given sequence number
func (d *Database) JournalEntry(seq uint64) (*JournalEntry, error) {
	data, err := d.journal.Get(nil, seq)
	if err != nil {
		return nil, err
	}
	entry := &JournalEntry{}
	if err := cbor.Unmarshal(data, entry); err != nil {
		return nil, fmt.Errorf("decode journal entry %d: %w", seq, err)
	}
	return entry, nil
}

var errStopIteration = errors.New("stop iteration")

// JournalEntries calls fn for each committed entry starting at fromSeq.
// Returning false from fn stops the iteration
func (d *Database) JournalEntries(
	fromSeq uint64,
	fn func(*JournalEntry) bool,
) error {
	err := d.journal.Iterate(fromSeq, func(seq uint64, data []byte) error {
		entry := &JournalEntry{}
		if err := cbor.Unmarshal(data, entry); err != nil {
			return fmt.Errorf("decode journal entry %d: %w", seq, err)
		}
		if !fn(entry) {
			return errStopIteration
		}
		return nil
	})
	if errors.Is(err, errStopIteration) {
		return nil
	}
	return err
}

// VerifyJournal walks the whole journal and checks every entry hash and the
// links between entries
func (d *Database) VerifyJournal() error {
	var prevHash []byte
	var expectedSeq uint64 = 1
	var verifyErr error
	err := d.JournalEntries(1, func(entry *JournalEntry) bool {
		if entry.Seq != expectedSeq {
			verifyErr = fmt.Errorf(
				"journal gap: expected entry %d, found %d",
				expectedSeq,
				entry.Seq,
			)
			return false
		}
		if string(entry.PrevHash) != string(prevHash) {
			verifyErr = fmt.Errorf("journal entry %d: broken link", entry.Seq)
			return false
		}
		if err := entry.Verify(); err != nil {
			verifyErr = err
			return false
		}
		prevHash = entry.Hash
		expectedSeq++
		return true
	})
	if err != nil {
		return err
	}
	return verifyErr
}
