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
	"fmt"
)

type operatingStatusPayload struct {
	Operational bool
}

// SetOperatingStatus switches the ledger on or off. Only the owner may call
// it, and it is the one call allowed while the ledger is paused
func (ls *LedgerState) SetOperatingStatus(sender Address, operational bool) error {
	changed := false
	err := ls.apply(
		"set_operating_status",
		sender,
		operatingStatusPayload{Operational: operational},
		false,
		func(tx *ledgerTxn) error {
			if string(sender) != tx.state.Owner {
				return fmt.Errorf("%w: only the owner can change the operating status", ErrUnauthorized)
			}
			if tx.state.Operational == operational {
				return nil
			}
			tx.state.Operational = operational
			changed = true
			tx.publish(OperatingStatusEventType, OperatingStatusEvent{
				Sender:      sender,
				Seq:         tx.seq,
				Operational: operational,
			})
			return nil
		},
	)
	if err != nil {
		return err
	}
	if changed {
		ls.logger.Info(
			"operating status changed",
			"component", "ledger",
			"operational", operational,
		)
	}
	return nil
}

// IsOperational reports whether the ledger accepts mutating calls
func (ls *LedgerState) IsOperational() (bool, error) {
	state, err := ls.db.Metadata().GetSystemState(nil)
	if err != nil {
		return false, err
	}
	return state.Operational, nil
}
