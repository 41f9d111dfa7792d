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

package entropy

import (
	llrice "github.com/llrice/llrice-go"
	"github.com/llrice/llrice-go/bitstream"
	"github.com/pkg/errors"
)

// NullEntropyEncoder pass through entropy encoder (writes each value as
// a 32 bit word)
type NullEntropyEncoder struct {
	bitstream llrice.OutputBitStream
}

// NewNullEntropyEncoder creates a new instance of NullEntropyEncoder
func NewNullEntropyEncoder(bs llrice.OutputBitStream) (*NullEntropyEncoder, error) {
	if bs == nil {
		return nil, errors.New("Null codec: Invalid null bitstream parameter")
	}

	this := new(NullEntropyEncoder)
	this.bitstream = bs
	return this, nil
}

// Put writes one value
func (this *NullEntropyEncoder) Put(v uint32) {
	this.bitstream.Reserve(32)
	this.bitstream.PutBits(32, v)
}

// Write writes the zig-zag mapped values into the bitstream. Return the number
// of values written.
func (this *NullEntropyEncoder) Write(block []int32) (n int, err error) {
	defer bitstream.RecoverSyncError(&err)

	for i := range block {
		this.Put(ToUnsigned(block[i]))
		n++
	}

	return n, err
}

// Flush flushes the bitstream
func (this *NullEntropyEncoder) Flush() {
	this.bitstream.Flush()
}

// BitStream returns the underlying bitstream
func (this *NullEntropyEncoder) BitStream() llrice.OutputBitStream {
	return this.bitstream
}

// NullEntropyDecoder pass through entropy decoder (reads each value as
// a 32 bit word)
type NullEntropyDecoder struct {
	bitstream llrice.InputBitStream
}

// NewNullEntropyDecoder creates a new instance of NullEntropyDecoder
func NewNullEntropyDecoder(bs llrice.InputBitStream) (*NullEntropyDecoder, error) {
	if bs == nil {
		return nil, errors.New("Null codec: Invalid null bitstream parameter")
	}

	this := new(NullEntropyDecoder)
	this.bitstream = bs
	return this, nil
}

// Get reads one value
func (this *NullEntropyDecoder) Get() uint32 {
	this.bitstream.Reserve(32)
	res := this.bitstream.Peek32()
	this.bitstream.Skip(32)
	return res
}

// Read reads values from the bitstream and return them in the provided
// buffer. Return the number of values read.
func (this *NullEntropyDecoder) Read(block []int32) (n int, err error) {
	defer bitstream.RecoverSyncError(&err)

	for i := range block {
		block[i] = ToSigned(this.Get())
		n++
	}

	return n, err
}

// BitStream returns the underlying bitstream
func (this *NullEntropyDecoder) BitStream() llrice.InputBitStream {
	return this.bitstream
}
