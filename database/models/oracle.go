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

var (
	ErrOracleNodeNotFound    = errors.New("oracle node not found")
	ErrOracleRequestNotFound = errors.New("oracle request not found")
)

type OracleNode struct {
	Address  string `gorm:"uniqueIndex;size:42;not null"`
	ID       uint   `gorm:"primarykey"`
	Fee      uint64
	AddedSeq uint64
	Index0   uint8
	Index1   uint8
	Index2   uint8
}

func (OracleNode) TableName() string {
	return "oracle_node"
}

// Indexes returns the node's three assigned indices
func (n *OracleNode) Indexes() [3]uint8 {
	return [3]uint8{n.Index0, n.Index1, n.Index2}
}

// HasIndex reports whether idx is one of the node's assigned indices
func (n *OracleNode) HasIndex(idx uint8) bool {
	return n.Index0 == idx || n.Index1 == idx || n.Index2 == idx
}

// OracleRequest tracks one outstanding status request, keyed by the index
// it was issued with and the flight key.
type OracleRequest struct {
	Airline        string `gorm:"uniqueIndex:idx_oracle_request_key;size:42;not null"`
	Designator     string `gorm:"uniqueIndex:idx_oracle_request_key;not null"`
	Requester      string `gorm:"size:42"`
	Timestamp      int64  `gorm:"uniqueIndex:idx_oracle_request_key"`
	ID             uint   `gorm:"primarykey"`
	AddedSeq       uint64
	ResolvedSeq    uint64
	OracleIndex    uint8 `gorm:"uniqueIndex:idx_oracle_request_key"`
	ResolvedStatus uint8
	IsOpen         bool
}

func (OracleRequest) TableName() string {
	return "oracle_request"
}

// OracleResponse records a single responder's answer to a request. The unique
// index on (request, responder) makes a repeated response from the same node
// detectable.
type OracleResponse struct {
	Responder  string `gorm:"uniqueIndex:idx_oracle_response_responder;size:42;not null"`
	ID         uint   `gorm:"primarykey"`
	RequestID  uint   `gorm:"uniqueIndex:idx_oracle_response_responder;index:idx_oracle_response_status"`
	AddedSeq   uint64
	StatusCode uint8 `gorm:"index:idx_oracle_response_status"`
}

func (OracleResponse) TableName() string {
	return "oracle_response"
}
