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

var ErrAirlineNotFound = errors.New("airline not found")

type Airline struct {
	Address      string `gorm:"uniqueIndex;size:42;not null"`
	Name         string
	ID           uint   `gorm:"primarykey"`
	FundedAmount uint64
	AddedSeq     uint64 `gorm:"index"`
	IsRegistered bool   `gorm:"index"`
	IsFunded     bool
}

func (Airline) TableName() string {
	return "airline"
}

// AirlineVote is one entry of a pending candidate's ballot. The unique index
// on (candidate, voter) is what keeps a voter from being counted twice.
type AirlineVote struct {
	Candidate string `gorm:"uniqueIndex:idx_airline_vote_candidate_voter;size:42;not null"`
	Voter     string `gorm:"uniqueIndex:idx_airline_vote_candidate_voter;size:42;not null"`
	ID        uint   `gorm:"primarykey"`
	AddedSeq  uint64
}

func (AirlineVote) TableName() string {
	return "airline_vote"
}
