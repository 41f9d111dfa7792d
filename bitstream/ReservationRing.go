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

const (
	MIN_RING_CAPACITY     = 2
	DEFAULT_RING_CAPACITY = 4
	MAX_RING_CAPACITY     = 32
)

// ReservationRing is a bounded FIFO of page handles owned by one bitstream.
// Pages enter the ring when capacity is reserved and leave it when the
// bit accumulator commits (writer) or loads (reader) a word.
type ReservationRing struct {
	buf      [MAX_RING_CAPACITY]PageHandle
	capacity int
	head     int // next slot to take
	size     int
}

// NewReservationRing creates a ring holding at most 'capacity' handles
func NewReservationRing(capacity int) *ReservationRing {
	return &ReservationRing{capacity: capacity}
}

// Push appends a handle. Panics with a SyncError if the ring is full.
func (this *ReservationRing) Push(h PageHandle) {
	if this.size == this.capacity {
		panic(NewSyncError(SYNC_RING_OVERFLOW, "ReservationRing.Push",
			"reservation ring is full (%d pages)", this.capacity))
	}

	idx := this.head + this.size

	if idx >= this.capacity {
		idx -= this.capacity
	}

	this.buf[idx] = h
	this.size++
}

// Take removes and returns the oldest handle.
// Panics with a SyncError if the ring is empty.
func (this *ReservationRing) Take() PageHandle {
	if this.size == 0 {
		panic(NewSyncError(SYNC_RING_EMPTY, "ReservationRing.Take", "no reserved page"))
	}

	h := this.buf[this.head]
	this.head++

	if this.head == this.capacity {
		this.head = 0
	}

	this.size--
	return h
}

// Peek returns the oldest handle without removing it.
// Panics with a SyncError if the ring is empty.
func (this *ReservationRing) Peek() PageHandle {
	if this.size == 0 {
		panic(NewSyncError(SYNC_RING_EMPTY, "ReservationRing.Peek", "no reserved page"))
	}

	return this.buf[this.head]
}

// Len returns the number of handles in the ring
func (this *ReservationRing) Len() int {
	return this.size
}

// Cap returns the maximum number of handles in the ring
func (this *ReservationRing) Cap() int {
	return this.capacity
}

// Empty returns true if the ring holds no handle
func (this *ReservationRing) Empty() bool {
	return this.size == 0
}

// Full returns true if no more handle can be pushed
func (this *ReservationRing) Full() bool {
	return this.size == this.capacity
}
