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

var ErrFlightNotFound = errors.New("flight not found")

type Flight struct {
	Airline      string `gorm:"uniqueIndex:idx_flight_key;size:42;not null"`
	Designator   string `gorm:"uniqueIndex:idx_flight_key;not null"`
	Timestamp    int64  `gorm:"uniqueIndex:idx_flight_key"`
	ID           uint   `gorm:"primarykey"`
	AddedSeq     uint64
	UpdatedSeq   uint64
	StatusCode   uint8
	IsRegistered bool
}

func (Flight) TableName() string {
	return "flight"
}
