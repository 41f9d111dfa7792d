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
	"fmt"
	"io"

	llrice "github.com/llrice/llrice-go"
	"github.com/pkg/errors"
)

// DebugOutputBitStream is an implementation of OutputBitStream used for debugging.
// Every write is checked against the reservation of the delegate and the
// written bits are optionally logged to an io.Writer.
type DebugOutputBitStream struct {
	delegate llrice.OutputBitStream
	trace    bitTracer
}

// NewDebugOutputBitStream creates a DebugOutputBitStream wrapped around 'obs'.
// All calls are delegated to the 'obs' OutputBitStream and written bits are logged
// to the provided io.Writer (if not nil).
func NewDebugOutputBitStream(obs llrice.OutputBitStream, writer io.Writer) (*DebugOutputBitStream, error) {
	if obs == nil {
		return nil, errors.New("The delegate cannot be null")
	}

	this := &DebugOutputBitStream{}
	this.delegate = obs
	this.trace = bitTracer{out: writer, width: 80, tag: "w"}
	return this, nil
}

// Reserve calls Reserve() on the underlying bitstream delegate.
func (this *DebugOutputBitStream) Reserve(bits uint) {
	this.delegate.Reserve(bits)
}

// PutBits writes the 'n' least significant bits of value.
// Panics with a SyncError if the value is wider than 'n' bits or if 'n'
// bits have not been reserved.
// Calls PutBits() on the underlying bitstream delegate.
func (this *DebugOutputBitStream) PutBits(n uint, value uint32) {
	if n > 32 || (n < 32 && value>>n != 0) {
		panic(NewSyncError(SYNC_VALUE_TOO_WIDE, "DebugOutputBitStream.PutBits",
			"value %#x does not fit in %d bits", value, n))
	}

	if n > this.delegate.Available() {
		panic(NewSyncError(SYNC_UNRESERVED, "DebugOutputBitStream.PutBits",
			"%d bits written, %d bits reserved", n, this.delegate.Available()))
	}

	this.delegate.PutBits(n, value)
	this.trace.log(n, value)
}

// ByteAlign calls ByteAlign() on the underlying bitstream delegate.
func (this *DebugOutputBitStream) ByteAlign() {
	before := this.delegate.Written()
	this.delegate.ByteAlign()
	this.trace.log(uint(this.delegate.Written()-before), 0)
}

// Flush calls Flush() on the underlying bitstream delegate.
func (this *DebugOutputBitStream) Flush() {
	this.delegate.Flush()
	this.trace.end()
}

// Available calls Available() on the underlying bitstream delegate.
func (this *DebugOutputBitStream) Available() uint {
	return this.delegate.Available()
}

// Written returns the number of bits written
// Calls Written() on the underlying bitstream delegate.
func (this *DebugOutputBitStream) Written() uint64 {
	return this.delegate.Written()
}

// Mark sets the internal mark state. When true, displays 'w'
// after each bit sequence written to the bitstream delegate.
func (this *DebugOutputBitStream) Mark(mark bool) {
	this.trace.mark = mark
}

// ShowByte sets the internal show byte state. When true, displays
// the byte value after each group of 8 bits.
func (this *DebugOutputBitStream) ShowByte(show bool) {
	this.trace.hexa = show
}

// bitTracer prints bits in groups of 8, 'width' bits per line
type bitTracer struct {
	out       io.Writer
	tag       string
	mark      bool
	hexa      bool
	current   byte
	width     int
	lineIndex int
}

func (this *bitTracer) log(n uint, value uint32) {
	if this.out == nil {
		return
	}

	for i := uint(1); i <= n; i++ {
		bit := (value >> (n - i)) & 1
		this.current = (this.current << 1) | byte(bit)
		this.lineIndex++
		fmt.Fprintf(this.out, "%d", bit)

		if this.mark == true && i == n {
			fmt.Fprint(this.out, this.tag)
		}

		if this.width > 7 && this.lineIndex%this.width == 0 {
			if this.hexa == true {
				this.printByte(this.current)
			}

			fmt.Fprintln(this.out)
			this.lineIndex = 0
		} else if this.lineIndex&7 == 0 {
			if this.hexa == true {
				this.printByte(this.current)
			} else {
				fmt.Fprint(this.out, " ")
			}
		}
	}
}

func (this *bitTracer) end() {
	if this.out != nil && this.lineIndex != 0 {
		fmt.Fprintln(this.out)
		this.lineIndex = 0
	}
}

func (this *bitTracer) printByte(val byte) {
	fmt.Fprintf(this.out, " [%03d] ", val)
}
