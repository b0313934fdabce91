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
	"errors"
	"fmt"

	"github.com/blinklabs-io/flightsurety/database/models"
	"gorm.io/gorm"
)

// GetFlight returns the flight with the given key, or nil if none exists
func (d *MetadataStoreSqlite) GetFlight(
	airline string,
	designator string,
	timestamp int64,
	txn *gorm.DB,
) (*models.Flight, error) {
	ret := &models.Flight{}
	result := d.handle(txn).
		Where(
			"airline = ? AND designator = ? AND timestamp = ?",
			airline,
			designator,
			timestamp,
		).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetFlights returns the flights registered by an airline, or all flights
// when airline is empty
func (d *MetadataStoreSqlite) GetFlights(
	airline string,
	txn *gorm.DB,
) ([]models.Flight, error) {
	var ret []models.Flight
	query := d.handle(txn).Order("id")
	if airline != "" {
		query = query.Where("airline = ?", airline)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateFlight inserts a new flight record
func (d *MetadataStoreSqlite) CreateFlight(
	flight *models.Flight,
	txn *gorm.DB,
) error {
	if result := d.handle(txn).Create(flight); result.Error != nil {
		return fmt.Errorf("create flight: %w", result.Error)
	}
	return nil
}

// SetFlightStatus updates the status code of a flight
func (d *MetadataStoreSqlite) SetFlightStatus(
	flightID uint,
	statusCode uint8,
	seq uint64,
	txn *gorm.DB,
) error {
	result := d.handle(txn).
		Model(&models.Flight{}).
		Where("id = ?", flightID).
		Updates(map[string]any{
			"status_code": statusCode,
			"updated_seq": seq,
		})
	if result.Error != nil {
		return fmt.Errorf("update flight status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrFlightNotFound
	}
	return nil
}
