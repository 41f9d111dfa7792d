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
	"io"

	llrice "github.com/llrice/llrice-go"
	"github.com/pkg/errors"
)

// DebugInputBitStream is an implementation of InputBitStream used for debugging.
// Every access is checked against the reservation of the delegate and the
// consumed bits are optionally logged to an io.Writer.
type DebugInputBitStream struct {
	delegate llrice.InputBitStream
	trace    bitTracer
}

// NewDebugInputBitStream creates a DebugInputBitStream wrapped around 'ibs'.
// All calls are delegated to the 'ibs' InputBitStream and read bits are logged
// to the provided io.Writer (if not nil).
func NewDebugInputBitStream(ibs llrice.InputBitStream, writer io.Writer) (*DebugInputBitStream, error) {
	if ibs == nil {
		return nil, errors.New("The delegate cannot be null")
	}

	this := new(DebugInputBitStream)
	this.delegate = ibs
	this.trace = bitTracer{out: writer, width: 80, tag: "r"}
	return this, nil
}

// Reserve calls Reserve() on the underlying bitstream delegate.
func (this *DebugInputBitStream) Reserve(bits uint) {
	this.delegate.Reserve(bits)
}

func (this *DebugInputBitStream) check(op string, n uint) {
	if n > 32 || n > this.delegate.Available() {
		panic(NewSyncError(SYNC_UNRESERVED, op,
			"%d bits accessed, %d bits reserved", n, this.delegate.Available()))
	}
}

// Peek32 calls Peek32() on the underlying bitstream delegate.
// Panics with a SyncError if 32 bits have not been reserved.
func (this *DebugInputBitStream) Peek32() uint32 {
	this.check("DebugInputBitStream.Peek32", 32)
	return this.delegate.Peek32()
}

// PeekN calls PeekN() on the underlying bitstream delegate.
// Panics with a SyncError if 'n' bits have not been reserved.
func (this *DebugInputBitStream) PeekN(n uint) uint32 {
	this.check("DebugInputBitStream.PeekN", n)
	return this.delegate.PeekN(n)
}

// Skip calls Skip() on the underlying bitstream delegate.
// Panics with a SyncError if 'n' bits have not been reserved.
func (this *DebugInputBitStream) Skip(n uint) {
	this.check("DebugInputBitStream.Skip", n)
	this.trace.log(n, this.delegate.PeekN(n))
	this.delegate.Skip(n)
}

// Available calls Available() on the underlying bitstream delegate.
func (this *DebugInputBitStream) Available() uint {
	return this.delegate.Available()
}

// Read returns the number of bits read
// Calls Read() on the underlying bitstream delegate.
func (this *DebugInputBitStream) Read() uint64 {
	return this.delegate.Read()
}

// Mark sets the internal mark state. When true, displays 'r'
// after each bit sequence consumed from the bitstream delegate.
func (this *DebugInputBitStream) Mark(mark bool) {
	this.trace.mark = mark
}

// ShowByte sets the internal show byte state. When true, displays
// the byte value after each group of 8 bits.
func (this *DebugInputBitStream) ShowByte(show bool) {
	this.trace.hexa = show
}
