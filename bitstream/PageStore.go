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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	PAGE_BITS  = 64
	PAGE_BYTES = PAGE_BITS / 8
)

// PageHandle is an opaque index of a page in a PageStore
type PageHandle int

// PageStore is an append-only arena of 64 bit pages with independent
// write and read cursors. Pages are never released before the store is
// discarded. The read cursor never passes the write cursor.
// A PageStore may be shared by several writers (or readers) as long as
// they are driven by the same goroutine.
type PageStore struct {
	pages    []uint64
	writePos int
	readPos  int
}

// NewPageStore creates an empty store. The capacity hint (in pages) is
// used to size the backing slice.
func NewPageStore(capacityHint int) *PageStore {
	if capacityHint < 0 {
		capacityHint = 0
	}

	return &PageStore{pages: make([]uint64, 0, capacityHint)}
}

// NewPageStoreFromPages creates a store holding the provided pages, all of
// them available for reading.
func NewPageStoreFromPages(pages []uint64) *PageStore {
	return &PageStore{pages: pages, writePos: len(pages)}
}

// NewPageStoreFromBytes creates a readable store from the wire format
// (big endian 64 bit words). The length must be a multiple of 8.
func NewPageStoreFromBytes(buf []byte) (*PageStore, error) {
	if len(buf)%PAGE_BYTES != 0 {
		return nil, errors.Errorf("Invalid page data length %d (must be a multiple of %d)", len(buf), PAGE_BYTES)
	}

	pages := make([]uint64, len(buf)/PAGE_BYTES)

	for i := range pages {
		pages[i] = binary.BigEndian.Uint64(buf[i*PAGE_BYTES:])
	}

	return NewPageStoreFromPages(pages), nil
}

// AcquirePage appends a zeroed page and returns its handle
func (this *PageStore) AcquirePage() PageHandle {
	this.pages = append(this.pages, 0)
	h := PageHandle(this.writePos)
	this.writePos++
	return h
}

// NextReadPage returns the handle of the next unread page and advances the
// read cursor. Panics with a SyncError if all written pages have been read.
func (this *PageStore) NextReadPage() PageHandle {
	if this.readPos >= this.writePos {
		panic(NewSyncError(SYNC_READ_PAST_END, "PageStore.NextReadPage",
			"no page left to read (read cursor %d, write cursor %d)", this.readPos, this.writePos))
	}

	h := PageHandle(this.readPos)
	this.readPos++
	return h
}

// Get returns the page for the provided handle
func (this *PageStore) Get(h PageHandle) uint64 {
	if uint(h) >= uint(len(this.pages)) {
		panic(NewSyncError(SYNC_BAD_HANDLE, "PageStore.Get", "invalid page handle %d", h))
	}

	return this.pages[h]
}

// Set updates the page for the provided handle
func (this *PageStore) Set(h PageHandle, page uint64) {
	if uint(h) >= uint(len(this.pages)) {
		panic(NewSyncError(SYNC_BAD_HANDLE, "PageStore.Set", "invalid page handle %d", h))
	}

	this.pages[h] = page
}

// Pad appends 'n' zero pages available for reading. A writer may acquire
// up to a full reservation window of pages it never fills: a reader
// restored from the filled pages only needs as many trailing zero pages.
func (this *PageStore) Pad(n int) {
	for i := 0; i < n; i++ {
		this.AcquirePage()
	}
}

// Len returns the number of pages in the store
func (this *PageStore) Len() int {
	return len(this.pages)
}

// ReadCursor returns the index of the next page to read
func (this *PageStore) ReadCursor() int {
	return this.readPos
}

// WriteCursor returns the index of the next page to allocate
func (this *PageStore) WriteCursor() int {
	return this.writePos
}

// Pages returns the backing slice (not a copy)
func (this *PageStore) Pages() []uint64 {
	return this.pages
}

// Bytes returns the pages in wire format (big endian)
func (this *PageStore) Bytes() []byte {
	buf := make([]byte, len(this.pages)*PAGE_BYTES)

	for i, p := range this.pages {
		binary.BigEndian.PutUint64(buf[i*PAGE_BYTES:], p)
	}

	return buf
}

// WriteTo writes the pages in wire format to the provided writer.
// Returns the number of bytes written.
func (this *PageStore) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(this.Bytes())

	if err != nil {
		return int64(n), errors.WithStack(err)
	}

	return int64(n), nil
}
