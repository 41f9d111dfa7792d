/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bitstream

import (
	"github.com/pkg/errors"
)

// PagedInputBitStream is an implementation of InputBitStream reading
// 64 bit pages from a PageStore.
//
// Bits flow through two stages: a 64 bit holding register loaded one page
// at a time and a 32 bit look-ahead register. After any call, the
// look-ahead holds 32 bits unless fewer bits are reserved, in which case
// it holds all of them (left aligned, zero padded).
type PagedInputBitStream struct {
	store *PageStore
	ring  ReservationRing
	buf64 uint64 // left aligned
	n64   uint   // valid bits in buf64
	buf32 uint32 // left aligned look-ahead
	n32   uint   // valid bits in buf32
	read  uint64
}

// NewPagedInputBitStream creates a bitstream reading from the provided store.
// The ring capacity (in pages) must be in [2..32] and should match the
// capacity used by the writer.
func NewPagedInputBitStream(store *PageStore, ringCapacity uint) (*PagedInputBitStream, error) {
	if store == nil {
		return nil, errors.New("Invalid null page store parameter")
	}

	if ringCapacity < MIN_RING_CAPACITY || ringCapacity > MAX_RING_CAPACITY {
		return nil, errors.Errorf("Invalid ring capacity parameter %d (must be in [%d..%d])",
			ringCapacity, MIN_RING_CAPACITY, MAX_RING_CAPACITY)
	}

	this := &PagedInputBitStream{}
	this.store = store
	this.ring = ReservationRing{capacity: int(ringCapacity)}
	return this, nil
}

// Reserve fetches pages from the store until at least 'bits' bits can be
// read. Panics with a SyncError if the store has no more pages or if the
// ring cannot hold enough pages.
func (this *PagedInputBitStream) Reserve(bits uint) {
	if bits > uint(this.ring.Cap())*PAGE_BITS {
		panic(NewSyncError(SYNC_RESERVE_TOO_LARGE, "PagedInputBitStream.Reserve",
			"cannot reserve %d bits with a ring of %d pages", bits, this.ring.Cap()))
	}

	for this.Available() < bits {
		if this.ring.Full() {
			panic(NewSyncError(SYNC_RING_OVERFLOW, "PagedInputBitStream.Reserve",
				"reservation ring is full (%d bits requested, %d available)", bits, this.Available()))
		}

		this.ring.Push(this.store.NextReadPage())
	}

	// Glue the newly reserved bits to the look-ahead
	this.fill()
}

// Move reserved bits into the look-ahead until it holds 32 bits or no
// reserved bit is left.
func (this *PagedInputBitStream) fill() {
	for this.n32 < 32 {
		if this.n64 == 0 {
			if this.ring.Empty() {
				return
			}

			this.buf64 = this.store.Get(this.ring.Take())
			this.n64 = 64
		}

		take := 32 - this.n32

		if take > this.n64 {
			take = this.n64
		}

		this.buf32 |= uint32(this.buf64>>(64-take)) << (32 - this.n32 - take)
		this.buf64 <<= take
		this.n64 -= take
		this.n32 += take
	}
}

// Available returns the number of bits reserved but not yet consumed
func (this *PagedInputBitStream) Available() uint {
	return this.n32 + this.n64 + uint(this.ring.Len())*PAGE_BITS
}

// Peek32 returns the next 32 bits without consuming them.
// At least 32 bits must have been reserved.
func (this *PagedInputBitStream) Peek32() uint32 {
	if CHECKED && this.n32 < 32 {
		panic(NewSyncError(SYNC_UNRESERVED, "PagedInputBitStream.Peek32",
			"32 bits peeked, %d bits reserved", this.Available()))
	}

	return this.buf32
}

// PeekN returns the next 'n' bits (n in [0..32]) without consuming them.
// At least 'n' bits must have been reserved.
func (this *PagedInputBitStream) PeekN(n uint) uint32 {
	if CHECKED && n > this.n32 {
		panic(NewSyncError(SYNC_UNRESERVED, "PagedInputBitStream.PeekN",
			"%d bits peeked, %d bits reserved", n, this.Available()))
	}

	return this.buf32 >> (32 - n)
}

// Skip consumes 'n' bits (n in [0..32]). Skipping beyond the reserved
// bits consumes zero padding.
func (this *PagedInputBitStream) Skip(n uint) {
	if CHECKED && n > this.n32 {
		panic(NewSyncError(SYNC_UNRESERVED, "PagedInputBitStream.Skip",
			"%d bits skipped, %d bits reserved", n, this.Available()))
	}

	this.read += uint64(n)

	if n >= this.n32 {
		this.buf32 = 0
		this.n32 = 0
	} else {
		this.buf32 <<= n
		this.n32 -= n
	}

	this.fill()
}

// Read returns the number of bits read
func (this *PagedInputBitStream) Read() uint64 {
	return this.read
}

// Store returns the page store this bitstream reads from
func (this *PagedInputBitStream) Store() *PageStore {
	return this.store
}
