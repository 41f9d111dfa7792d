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

// DEFAULT_LOG_BASE is the Rice parameter used when none is provided
const DEFAULT_LOG_BASE = 4

// RiceGolombEncoder a Rice Golomb Entropy Encoder with a static parameter
type RiceGolombEncoder struct {
	logBase   uint
	bitstream llrice.OutputBitStream
}

// NewRiceGolombEncoder creates a new instance of RiceGolombEncoder.
// The Rice parameter logBase must be in [0..31].
func NewRiceGolombEncoder(bs llrice.OutputBitStream, logBase uint) (*RiceGolombEncoder, error) {
	if bs == nil {
		return nil, errors.New("RiceGolomb codec: Invalid null bitstream parameter")
	}

	if logBase > 31 {
		return nil, errors.Errorf("RiceGolomb codec: Invalid logBase '%v' value (must be in [0..31])", logBase)
	}

	this := &RiceGolombEncoder{}
	this.bitstream = bs
	this.logBase = logBase
	return this, nil
}

// NewRiceGolombEncoderWithCtx creates a new instance of RiceGolombEncoder
// using the 'logBase' entry of the context (DEFAULT_LOG_BASE if missing).
func NewRiceGolombEncoderWithCtx(bs llrice.OutputBitStream, ctx *map[string]any) (*RiceGolombEncoder, error) {
	return NewRiceGolombEncoder(bs, logBaseFromCtx(ctx))
}

func logBaseFromCtx(ctx *map[string]any) uint {
	if ctx != nil {
		if val, hasKey := (*ctx)["logBase"]; hasKey {
			if lb, ok := val.(uint); ok {
				return lb
			}
		}
	}

	return DEFAULT_LOG_BASE
}

// LogBase returns the Rice parameter
func (this *RiceGolombEncoder) LogBase() uint {
	return this.logBase
}

// Put encodes one unsigned value
func (this *RiceGolombEncoder) Put(v uint32) {
	this.bitstream.Reserve(RICE_MAX_CODE_LENGTH)
	WriteRice(this.bitstream, v, this.logBase)
}

// Write encodes the signed values provided into the bitstream.
// Return the number of values encoded.
func (this *RiceGolombEncoder) Write(block []int32) (n int, err error) {
	defer bitstream.RecoverSyncError(&err)

	for i := range block {
		this.Put(ToUnsigned(block[i]))
		n++
	}

	return n, err
}

// Flush flushes the bitstream
func (this *RiceGolombEncoder) Flush() {
	this.bitstream.Flush()
}

// BitStream returns the underlying bitstream
func (this *RiceGolombEncoder) BitStream() llrice.OutputBitStream {
	return this.bitstream
}

// RiceGolombDecoder Rice Golomb Entropy Decoder with a static parameter
type RiceGolombDecoder struct {
	logBase   uint
	bitstream llrice.InputBitStream
}

// NewRiceGolombDecoder creates a new instance of RiceGolombDecoder.
// The Rice parameter logBase must be in [0..31].
func NewRiceGolombDecoder(bs llrice.InputBitStream, logBase uint) (*RiceGolombDecoder, error) {
	if bs == nil {
		return nil, errors.New("RiceGolomb codec: Invalid null bitstream parameter")
	}

	if logBase > 31 {
		return nil, errors.Errorf("RiceGolomb codec: Invalid logBase '%v' value (must be in [0..31])", logBase)
	}

	this := &RiceGolombDecoder{}
	this.bitstream = bs
	this.logBase = logBase
	return this, nil
}

// NewRiceGolombDecoderWithCtx creates a new instance of RiceGolombDecoder
// using the 'logBase' entry of the context (DEFAULT_LOG_BASE if missing).
func NewRiceGolombDecoderWithCtx(bs llrice.InputBitStream, ctx *map[string]any) (*RiceGolombDecoder, error) {
	return NewRiceGolombDecoder(bs, logBaseFromCtx(ctx))
}

// Get decodes one unsigned value
func (this *RiceGolombDecoder) Get() uint32 {
	this.bitstream.Reserve(RICE_MAX_CODE_LENGTH)
	return ReadRice(this.bitstream, this.logBase)
}

// Read decodes signed values from the bitstream and return them in the
// provided buffer. Return the number of values decoded.
func (this *RiceGolombDecoder) Read(block []int32) (n int, err error) {
	defer bitstream.RecoverSyncError(&err)

	for i := range block {
		block[i] = ToSigned(this.Get())
		n++
	}

	return n, err
}

// BitStream returns the underlying bitstream
func (this *RiceGolombDecoder) BitStream() llrice.InputBitStream {
	return this.bitstream
}
