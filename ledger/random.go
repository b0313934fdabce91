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

package ledger

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// pseudoRandomIndex maps the tip hash and call context into the oracle index
// space. It only needs to spread load between nodes, so a hash of public
// ledger data is enough
func pseudoRandomIndex(tipHash []byte, nonce uint64, context ...string) uint8 {
	h, _ := blake2b.New256(nil)
	h.Write(tipHash)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	h.Write(buf[:])
	for _, c := range context {
		h.Write([]byte(c))
		// Separator keeps ("ab","c") and ("a","bc") apart
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return uint8(binary.BigEndian.Uint64(sum[:8]) % OracleIndexSpace) //nolint:gosec // value is below OracleIndexSpace
}

// oracleIndexes draws OracleIndexCount distinct indices for a new node
func oracleIndexes(
	tipHash []byte,
	nodeCount uint64,
	address Address,
) [OracleIndexCount]uint8 {
	var ret [OracleIndexCount]uint8
	var seen [OracleIndexSpace]bool
	nonce := nodeCount << 8
	for i := 0; i < OracleIndexCount; {
		idx := pseudoRandomIndex(tipHash, nonce, string(address))
		nonce++
		if seen[idx] {
			continue
		}
		seen[idx] = true
		ret[i] = idx
		i++
	}
	return ret
}

// maxIndexDraws bounds the hash draws for a request index before falling back
// to the next free index in order
const maxIndexDraws = 64

// requestIndex picks an index no open request for the flight uses and returns
// it with the advanced nonce. The caller guarantees a free index exists
func requestIndex(
	tipHash []byte,
	nonce uint64,
	key FlightKey,
	used [OracleIndexSpace]bool,
) (uint8, uint64) {
	timestamp := make([]byte, 8)
	binary.BigEndian.PutUint64(timestamp, uint64(key.Timestamp)) //nolint:gosec // only hashed
	var idx uint8
	for range maxIndexDraws {
		nonce++
		idx = pseudoRandomIndex(
			tipHash,
			nonce,
			string(key.Airline),
			key.Flight,
			string(timestamp),
		)
		if !used[idx] {
			return idx, nonce
		}
	}
	for range OracleIndexSpace {
		idx = (idx + 1) % OracleIndexSpace
		if !used[idx] {
			break
		}
	}
	return idx, nonce
}
