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

package sqlite

import (
	"fmt"

	"github.com/blinklabs-io/flightsurety/database/models"
	"gorm.io/gorm"
)

// GetSystemState returns the singleton system state row, creating an empty
// one if it does not exist yet
func (d *MetadataStoreSqlite) GetSystemState(
	txn *gorm.DB,
) (*models.SystemState, error) {
	ret := &models.SystemState{}
	result := d.handle(txn).FirstOrCreate(
		ret,
		models.SystemState{ID: models.SystemStateID},
	)
	if result.Error != nil {
		return nil, fmt.Errorf("get system state: %w", result.Error)
	}
	return ret, nil
}

// SetSystemState saves the singleton system state row
func (d *MetadataStoreSqlite) SetSystemState(
	state *models.SystemState,
	txn *gorm.DB,
) error {
	state.ID = models.SystemStateID
	if result := d.handle(txn).Save(state); result.Error != nil {
		return fmt.Errorf("set system state: %w", result.Error)
	}
	return nil
}
