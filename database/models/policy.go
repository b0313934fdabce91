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

import "errors"

var ErrPolicyNotFound = errors.New("policy not found")

type Policy struct {
	Holder       string `gorm:"uniqueIndex:idx_policy_key;index:idx_policy_holder;size:42;not null"`
	Airline      string `gorm:"uniqueIndex:idx_policy_key;index:idx_policy_flight;size:42;not null"`
	Designator   string `gorm:"uniqueIndex:idx_policy_key;index:idx_policy_flight;not null"`
	Timestamp    int64  `gorm:"uniqueIndex:idx_policy_key;index:idx_policy_flight"`
	ID           uint   `gorm:"primarykey"`
	PricePaid    uint64
	PayoutAmount uint64
	AddedSeq     uint64
	IsPaid       bool
	Expired      bool
}

func (Policy) TableName() string {
	return "policy"
}

type InsuredBalance struct {
	Holder string `gorm:"uniqueIndex;size:42;not null"`
	ID     uint   `gorm:"primarykey"`
	Amount uint64
}

func (InsuredBalance) TableName() string {
	return "insured_balance"
}
