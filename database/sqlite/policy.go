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

// GetPolicy returns the policy held by holder on the given flight, or nil if
// none exists
func (d *MetadataStoreSqlite) GetPolicy(
	holder string,
	airline string,
	designator string,
	timestamp int64,
	txn *gorm.DB,
) (*models.Policy, error) {
	ret := &models.Policy{}
	result := d.handle(txn).
		Where(
			"holder = ? AND airline = ? AND designator = ? AND timestamp = ?",
			holder,
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

// GetPoliciesByHolder returns a holder's policies in purchase order
func (d *MetadataStoreSqlite) GetPoliciesByHolder(
	holder string,
	txn *gorm.DB,
) ([]models.Policy, error) {
	var ret []models.Policy
	result := d.handle(txn).
		Where("holder = ?", holder).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountPoliciesByHolder returns the number of policies bought by a holder
func (d *MetadataStoreSqlite) CountPoliciesByHolder(
	holder string,
	txn *gorm.DB,
) (int64, error) {
	var count int64
	result := d.handle(txn).
		Model(&models.Policy{}).
		Where("holder = ?", holder).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// GetOpenPoliciesByFlight returns the policies on a flight that are neither
// paid nor expired
func (d *MetadataStoreSqlite) GetOpenPoliciesByFlight(
	airline string,
	designator string,
	timestamp int64,
	txn *gorm.DB,
) ([]models.Policy, error) {
	var ret []models.Policy
	result := d.handle(txn).
		Where(
			"airline = ? AND designator = ? AND timestamp = ?",
			airline,
			designator,
			timestamp,
		).
		Where("is_paid = ? AND expired = ?", false, false).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreatePolicy inserts a new policy record
func (d *MetadataStoreSqlite) CreatePolicy(
	policy *models.Policy,
	txn *gorm.DB,
) error {
	if result := d.handle(txn).Create(policy); result.Error != nil {
		return fmt.Errorf("create policy: %w", result.Error)
	}
	return nil
}

// MarkPolicyPaid flips the paid flag of an unpaid policy. It reports false if
// the policy was already paid
func (d *MetadataStoreSqlite) MarkPolicyPaid(
	policyID uint,
	txn *gorm.DB,
) (bool, error) {
	result := d.handle(txn).
		Model(&models.Policy{}).
		Where("id = ? AND is_paid = ?", policyID, false).
		Update("is_paid", true)
	if result.Error != nil {
		return false, fmt.Errorf("mark policy paid: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ExpirePolicy marks an unpaid policy as expired
func (d *MetadataStoreSqlite) ExpirePolicy(
	policyID uint,
	txn *gorm.DB,
) error {
	result := d.handle(txn).
		Model(&models.Policy{}).
		Where("id = ? AND is_paid = ?", policyID, false).
		Update("expired", true)
	if result.Error != nil {
		return fmt.Errorf("expire policy: %w", result.Error)
	}
	return nil
}

// GetInsuredBalance returns the withdrawable credit of a holder
func (d *MetadataStoreSqlite) GetInsuredBalance(
	holder string,
	txn *gorm.DB,
) (uint64, error) {
	ret := &models.InsuredBalance{}
	result := d.handle(txn).Where("holder = ?", holder).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return ret.Amount, nil
}

// AddInsuredBalance credits amount to a holder's balance
func (d *MetadataStoreSqlite) AddInsuredBalance(
	holder string,
	amount uint64,
	txn *gorm.DB,
) error {
	db := d.handle(txn)
	balance := &models.InsuredBalance{}
	result := db.FirstOrCreate(balance, models.InsuredBalance{Holder: holder})
	if result.Error != nil {
		return fmt.Errorf("find or create balance: %w", result.Error)
	}
	result = db.Model(balance).
		Update("amount", gorm.Expr("amount + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("credit balance: %w", result.Error)
	}
	return nil
}

// ClearInsuredBalance sets a holder's balance to zero
func (d *MetadataStoreSqlite) ClearInsuredBalance(
	holder string,
	txn *gorm.DB,
) error {
	result := d.handle(txn).
		Model(&models.InsuredBalance{}).
		Where("holder = ?", holder).
		Update("amount", 0)
	if result.Error != nil {
		return fmt.Errorf("clear balance: %w", result.Error)
	}
	return nil
}
