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
	"gorm.io/gorm/clause"
)

// GetAirline returns the airline with the given address, or nil if none exists
func (d *MetadataStoreSqlite) GetAirline(
	address string,
	txn *gorm.DB,
) (*models.Airline, error) {
	ret := &models.Airline{}
	result := d.handle(txn).Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetAirlines returns all known airlines in registration order
func (d *MetadataStoreSqlite) GetAirlines(
	txn *gorm.DB,
) ([]models.Airline, error) {
	var ret []models.Airline
	result := d.handle(txn).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateAirline inserts a new airline record
func (d *MetadataStoreSqlite) CreateAirline(
	airline *models.Airline,
	txn *gorm.DB,
) error {
	if result := d.handle(txn).Create(airline); result.Error != nil {
		return fmt.Errorf("create airline: %w", result.Error)
	}
	return nil
}

// AddAirlineFunding marks an airline as funded and adds to its funded amount
func (d *MetadataStoreSqlite) AddAirlineFunding(
	address string,
	amount uint64,
	txn *gorm.DB,
) error {
	result := d.handle(txn).
		Model(&models.Airline{}).
		Where("address = ?", address).
		Updates(map[string]any{
			"is_funded":     true,
			"funded_amount": gorm.Expr("funded_amount + ?", amount),
		})
	if result.Error != nil {
		return fmt.Errorf("update airline funding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrAirlineNotFound
	}
	return nil
}

// CountRegisteredAirlines returns the number of admitted airlines
func (d *MetadataStoreSqlite) CountRegisteredAirlines(
	txn *gorm.DB,
) (int64, error) {
	var count int64
	result := d.handle(txn).
		Model(&models.Airline{}).
		Where("is_registered = ?", true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// AddAirlineVote records a vote for a candidate. It reports false when the
// voter already voted for the candidate, in which case nothing is written
func (d *MetadataStoreSqlite) AddAirlineVote(
	candidate string,
	voter string,
	seq uint64,
	txn *gorm.DB,
) (bool, error) {
	vote := &models.AirlineVote{
		Candidate: candidate,
		Voter:     voter,
		AddedSeq:  seq,
	}
	result := d.handle(txn).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote)
	if result.Error != nil {
		return false, fmt.Errorf("add airline vote: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountAirlineVotes returns the number of distinct voters for a candidate
func (d *MetadataStoreSqlite) CountAirlineVotes(
	candidate string,
	txn *gorm.DB,
) (int64, error) {
	var count int64
	result := d.handle(txn).
		Model(&models.AirlineVote{}).
		Where("candidate = ?", candidate).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// GetAirlineVoters returns the voters recorded for a candidate in vote order
func (d *MetadataStoreSqlite) GetAirlineVoters(
	candidate string,
	txn *gorm.DB,
) ([]string, error) {
	var ret []string
	result := d.handle(txn).
		Model(&models.AirlineVote{}).
		Where("candidate = ?", candidate).
		Order("id").
		Pluck("voter", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// DeleteAirlineVotes clears the ballot for a candidate
func (d *MetadataStoreSqlite) DeleteAirlineVotes(
	candidate string,
	txn *gorm.DB,
) error {
	result := d.handle(txn).
		Where("candidate = ?", candidate).
		Delete(&models.AirlineVote{})
	if result.Error != nil {
		return fmt.Errorf("delete airline votes: %w", result.Error)
	}
	return nil
}
