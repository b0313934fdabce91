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

// GetOracleNode returns the oracle node with the given address, or nil if
// none exists
func (d *MetadataStoreSqlite) GetOracleNode(
	address string,
	txn *gorm.DB,
) (*models.OracleNode, error) {
	ret := &models.OracleNode{}
	result := d.handle(txn).Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetOracleNodes returns all registered oracle nodes in registration order
func (d *MetadataStoreSqlite) GetOracleNodes(
	txn *gorm.DB,
) ([]models.OracleNode, error) {
	var ret []models.OracleNode
	if result := d.handle(txn).Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountOracleNodes returns the number of registered oracle nodes
func (d *MetadataStoreSqlite) CountOracleNodes(
	txn *gorm.DB,
) (int64, error) {
	var count int64
	result := d.handle(txn).Model(&models.OracleNode{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// CreateOracleNode inserts a new oracle node record
func (d *MetadataStoreSqlite) CreateOracleNode(
	node *models.OracleNode,
	txn *gorm.DB,
) error {
	if result := d.handle(txn).Create(node); result.Error != nil {
		return fmt.Errorf("create oracle node: %w", result.Error)
	}
	return nil
}

// GetOracleRequest returns the request issued with index for the given
// flight, or nil if none exists
func (d *MetadataStoreSqlite) GetOracleRequest(
	index uint8,
	airline string,
	designator string,
	timestamp int64,
	txn *gorm.DB,
) (*models.OracleRequest, error) {
	ret := &models.OracleRequest{}
	result := d.handle(txn).
		Where(
			"oracle_index = ? AND airline = ? AND designator = ? AND timestamp = ?",
			index,
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

// GetOracleRequestsByFlight returns every request issued for a flight
func (d *MetadataStoreSqlite) GetOracleRequestsByFlight(
	airline string,
	designator string,
	timestamp int64,
	txn *gorm.DB,
) ([]models.OracleRequest, error) {
	var ret []models.OracleRequest
	result := d.handle(txn).
		Where(
			"airline = ? AND designator = ? AND timestamp = ?",
			airline,
			designator,
			timestamp,
		).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetOpenOracleRequests returns all requests that have not been resolved
func (d *MetadataStoreSqlite) GetOpenOracleRequests(
	txn *gorm.DB,
) ([]models.OracleRequest, error) {
	var ret []models.OracleRequest
	result := d.handle(txn).
		Where("is_open = ?", true).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateOracleRequest inserts a new request record
func (d *MetadataStoreSqlite) CreateOracleRequest(
	req *models.OracleRequest,
	txn *gorm.DB,
) error {
	if result := d.handle(txn).Create(req); result.Error != nil {
		return fmt.Errorf("create oracle request: %w", result.Error)
	}
	return nil
}

// ResolveOracleRequest closes a request with the agreed status code
func (d *MetadataStoreSqlite) ResolveOracleRequest(
	requestID uint,
	statusCode uint8,
	seq uint64,
	txn *gorm.DB,
) error {
	result := d.handle(txn).
		Model(&models.OracleRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]any{
			"is_open":         false,
			"resolved_status": statusCode,
			"resolved_seq":    seq,
		})
	if result.Error != nil {
		return fmt.Errorf("resolve oracle request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrOracleRequestNotFound
	}
	return nil
}

// ReopenOracleRequest reuses a resolved request record for a new request
// issued with the same index. Responses to the earlier request are removed
func (d *MetadataStoreSqlite) ReopenOracleRequest(
	requestID uint,
	requester string,
	seq uint64,
	txn *gorm.DB,
) error {
	db := d.handle(txn)
	result := db.
		Where("request_id = ?", requestID).
		Delete(&models.OracleResponse{})
	if result.Error != nil {
		return fmt.Errorf("clear oracle responses: %w", result.Error)
	}
	result = db.
		Model(&models.OracleRequest{}).
		Where("id = ? AND is_open = ?", requestID, false).
		Updates(map[string]any{
			"is_open":         true,
			"requester":       requester,
			"resolved_status": 0,
			"resolved_seq":    0,
			"added_seq":       seq,
		})
	if result.Error != nil {
		return fmt.Errorf("reopen oracle request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrOracleRequestNotFound
	}
	return nil
}

// AddOracleResponse records a response. It reports false when the responder
// already answered the request, in which case nothing is written
func (d *MetadataStoreSqlite) AddOracleResponse(
	resp *models.OracleResponse,
	txn *gorm.DB,
) (bool, error) {
	result := d.handle(txn).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(resp)
	if result.Error != nil {
		return false, fmt.Errorf("add oracle response: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountOracleResponses returns the number of distinct responders that
// reported statusCode for a request
func (d *MetadataStoreSqlite) CountOracleResponses(
	requestID uint,
	statusCode uint8,
	txn *gorm.DB,
) (int64, error) {
	var count int64
	result := d.handle(txn).
		Model(&models.OracleResponse{}).
		Where("request_id = ? AND status_code = ?", requestID, statusCode).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
