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

// PagedOutputBitStream is an implementation of OutputBitStream writing
// 64 bit pages to a PageStore. Bits are packed MSB first in a 64 bit
// accumulator which is committed to the oldest reserved page when full.
//
// PutBits performs no allocation and no bounds check (unless built with
// the 'llrdebug' tag): the capacity must be guaranteed by a preceding call
// to Reserve. A reservation of (ringCapacity-1)*64 bits always succeeds.
type PagedOutputBitStream struct {
	store   *PageStore
	ring    ReservationRing
	current uint64 // pending bits, right aligned
	left    uint   // free bits in current
	written uint64
}

// NewPagedOutputBitStream creates a bitstream writing to the provided store.
// The ring capacity (in pages) must be in [2..32].
func NewPagedOutputBitStream(store *PageStore, ringCapacity uint) (*PagedOutputBitStream, error) {
	if store == nil {
		return nil, errors.New("Invalid null page store parameter")
	}

	if ringCapacity < MIN_RING_CAPACITY || ringCapacity > MAX_RING_CAPACITY {
		return nil, errors.Errorf("Invalid ring capacity parameter %d (must be in [%d..%d])",
			ringCapacity, MIN_RING_CAPACITY, MAX_RING_CAPACITY)
	}

	this := &PagedOutputBitStream{}
	this.store = store
	this.ring = ReservationRing{capacity: int(ringCapacity)}
	this.left = 64
	return this, nil
}

// Reserve acquires pages from the store until at least 'bits' bits can be
// written. Panics with a SyncError if the ring cannot hold enough pages.
func (this *PagedOutputBitStream) Reserve(bits uint) {
	if bits > uint(this.ring.Cap())*PAGE_BITS {
		panic(NewSyncError(SYNC_RESERVE_TOO_LARGE, "PagedOutputBitStream.Reserve",
			"cannot reserve %d bits with a ring of %d pages", bits, this.ring.Cap()))
	}

	for this.available() < int(bits) {
		if this.ring.Full() {
			panic(NewSyncError(SYNC_RING_OVERFLOW, "PagedOutputBitStream.Reserve",
				"reservation ring is full (%d bits requested, %d available)", bits, this.available()))
		}

		this.ring.Push(this.store.AcquirePage())
	}
}

// The first reserved page is the destination of the accumulator
func (this *PagedOutputBitStream) available() int {
	return int(this.left) + (this.ring.Len()-1)*PAGE_BITS
}

// Available returns the number of bits reserved but not yet written
func (this *PagedOutputBitStream) Available() uint {
	if n := this.available(); n > 0 {
		return uint(n)
	}

	return 0
}

// PutBits writes the 'n' least significant bits of value (n in [0..32]).
// The value must fit in 'n' bits and 'n' bits must have been reserved.
func (this *PagedOutputBitStream) PutBits(n uint, value uint32) {
	if CHECKED {
		this.check(n, value)
	}

	this.written += uint64(n)

	if n <= this.left {
		this.current = (this.current << n) | uint64(value)
		this.left -= n
		return
	}

	// The write straddles two pages
	rem := n - this.left
	this.current = (this.current << this.left) | uint64(value>>rem)
	this.store.Set(this.ring.Take(), this.current)
	this.left += 64 - n

	// The high bits of value above 'rem' are shifted out before the next commit
	this.current = uint64(value)
}

func (this *PagedOutputBitStream) check(n uint, value uint32) {
	if n > 32 || (n < 32 && value>>n != 0) {
		panic(NewSyncError(SYNC_VALUE_TOO_WIDE, "PagedOutputBitStream.PutBits",
			"value %#x does not fit in %d bits", value, n))
	}

	if int(n) > this.available() {
		panic(NewSyncError(SYNC_UNRESERVED, "PagedOutputBitStream.PutBits",
			"%d bits written, %d bits reserved", n, this.Available()))
	}
}

// ByteAlign writes zero bits up to the next byte boundary.
// The dropped bits must have been reserved.
func (this *PagedOutputBitStream) ByteAlign() {
	shift := this.left & 7
	this.current <<= shift
	this.left -= shift
	this.written += uint64(shift)
}

// Flush pads the pending bits with zeros and commits them to the current
// page. Reserved pages not yet used stay in the store as zero pages.
func (this *PagedOutputBitStream) Flush() {
	if this.left < 64 {
		this.store.Set(this.ring.Take(), this.current<<this.left)
		this.current = 0
		this.left = 64
	}
}

// Written returns the number of bits written (padding excluded)
func (this *PagedOutputBitStream) Written() uint64 {
	return this.written
}

// Store returns the page store this bitstream writes to
func (this *PagedOutputBitStream) Store() *PageStore {
	return this.store
}
