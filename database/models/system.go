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

package models

// SystemStateID is the primary key of the single SystemState row
const SystemStateID = 1

// SystemState holds ledger-wide values: the operating switch, the contract
// owner, the request nonce and the journal tip that was last committed.
type SystemState struct {
	Owner        string `gorm:"size:42"`
	TipHash      []byte `gorm:"size:32"`
	ID           uint   `gorm:"primarykey"`
	RequestNonce uint64
	TipSeq       uint64
	Treasury     uint64
	Operational  bool
	Initialized  bool
}

func (SystemState) TableName() string {
	return "system_state"
}
