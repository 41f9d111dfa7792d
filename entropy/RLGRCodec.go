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

// Adaptation parameters are stored in fixed point (actual value << 3)
const (
	RLGR_MAX_K         = 240
	RLGR_UP_K          = 4 // full run window
	RLGR_DOWN_K        = 6 // run terminated by a non zero value
	RLGR_UP_K_DIRECT   = 3 // zero in direct mode
	RLGR_DOWN_K_DIRECT = 3 // non zero in direct mode
	RLGR_DOWN_K_RICE   = 2

	// Bits reserved at the start of a run window: terminator, run length
	// field (at most 30 bits) and one Rice code
	RLGR_RUN_RESERVE = 128
	// Bits reserved for one symbol in direct mode
	RLGR_DIRECT_RESERVE = RICE_MAX_CODE_LENGTH
)

// Adapt the Rice parameter given the magnitude coded with parameter krp.
// Unchanged when the magnitude is in [2^krp..2^(krp+1)[.
func adaptRice(kr, krp uint, value uint32) uint {
	vk := uint(value >> krp)

	if vk == 0 {
		if kr > RLGR_DOWN_K_RICE {
			return kr - RLGR_DOWN_K_RICE
		}

		return 0
	}

	if vk > 1 {
		// kr <= RLGR_MAX_K: the difference cannot wrap
		if vk > RLGR_MAX_K-kr {
			return RLGR_MAX_K
		}

		return kr + vk
	}

	return kr
}

func upK(k, step uint) uint {
	if k+step > RLGR_MAX_K {
		return RLGR_MAX_K
	}

	return k + step
}

func downK(k, step uint) uint {
	if k > step {
		return k - step
	}

	return 0
}

// RLGREncoder is an adaptive Run-Length Golomb-Rice encoder.
// While the run parameter k is small, values are Golomb-Rice coded one at a
// time (direct mode). Once k>>3 is positive, runs of zeros are coded by
// windows of 2^(k>>3) symbols: a full window costs one bit, a partial run
// is terminated by a one bit, the run length and the Rice code of the
// following non zero value minus one.
type RLGREncoder struct {
	bitstream llrice.OutputBitStream
	model     llrice.RiceParamModel
	k         uint
	kr        uint
	rl        uint32
	count     int
}

// NewRLGREncoder creates a new instance of RLGREncoder writing to 'bs'.
// The bitstream reservation window must hold at least 3 pages.
func NewRLGREncoder(bs llrice.OutputBitStream) (*RLGREncoder, error) {
	return NewRLGREncoderWithModel(bs, nil)
}

// NewRLGREncoderWithModel creates a new instance of RLGREncoder using the
// provided Rice parameter model (nil means additive adaptation only).
func NewRLGREncoderWithModel(bs llrice.OutputBitStream, model llrice.RiceParamModel) (*RLGREncoder, error) {
	if bs == nil {
		return nil, errors.New("RLGR codec: Invalid null bitstream parameter")
	}

	this := &RLGREncoder{}
	this.bitstream = bs
	this.model = model
	return this, nil
}

// NewRLGREncoderWithCtx creates a new instance of RLGREncoder. The
// parameter model is selected by the 'paramModel' entry of the context.
func NewRLGREncoderWithCtx(bs llrice.OutputBitStream, ctx *map[string]any) (*RLGREncoder, error) {
	model, err := paramModelFromCtx(ctx)

	if err != nil {
		return nil, err
	}

	return NewRLGREncoderWithModel(bs, model)
}

// NewRLGREncoderForStore creates a new instance of RLGREncoder writing to
// a new paged bitstream over 'store' with the default reservation window.
func NewRLGREncoderForStore(store *bitstream.PageStore) (*RLGREncoder, error) {
	obs, err := bitstream.NewPagedOutputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)

	if err != nil {
		return nil, err
	}

	return NewRLGREncoder(obs)
}

func paramModelFromCtx(ctx *map[string]any) (llrice.RiceParamModel, error) {
	if ctx == nil {
		return nil, nil
	}

	name, _ := (*ctx)["paramModel"].(string)
	modelType, err := GetParamModelType(name)

	if err != nil {
		return nil, err
	}

	return NewRiceParamModel(modelType)
}

// Put encodes one unsigned value
func (this *RLGREncoder) Put(v uint32) {
	this.count++
	kp := this.k >> 3
	krp := this.kr >> 3

	if kp == 0 {
		// Direct mode
		this.bitstream.Reserve(RLGR_DIRECT_RESERVE)
		WriteRice(this.bitstream, v, this.riceParam(krp))
		this.kr = adaptRice(this.kr, krp, v)

		if v == 0 {
			this.k = upK(this.k, RLGR_UP_K_DIRECT)
		} else {
			this.k = downK(this.k, RLGR_DOWN_K_DIRECT)
		}

		if this.model != nil {
			this.model.Update(v)
		}

		return
	}

	// Run mode
	if this.rl == 0 {
		this.bitstream.Reserve(RLGR_RUN_RESERVE)
	}

	if v == 0 {
		this.rl++

		if this.rl == 1<<kp {
			// Full window
			this.bitstream.PutBits(1, 0)
			this.rl = 0
			this.k = upK(this.k, RLGR_UP_K)

			if this.model != nil {
				this.model.Update(0)
			}
		}

		return
	}

	this.bitstream.PutBits(1, 1)
	this.bitstream.PutBits(kp, this.rl)
	this.rl = 0
	this.k = downK(this.k, RLGR_DOWN_K)
	WriteRice(this.bitstream, v-1, this.riceParam(krp))
	this.kr = adaptRice(this.kr, krp, v)

	if this.model != nil {
		this.model.Update(v - 1)
	}
}

func (this *RLGREncoder) riceParam(krp uint) uint {
	if this.model == nil {
		return krp
	}

	return this.model.Param(krp)
}

// PutSigned encodes one signed value (zig-zag mapped)
func (this *RLGREncoder) PutSigned(v int32) {
	this.Put(ToUnsigned(v))
}

// Write encodes the signed values provided into the bitstream.
// Return the number of values encoded.
func (this *RLGREncoder) Write(block []int32) (n int, err error) {
	defer bitstream.RecoverSyncError(&err)

	for i := range block {
		this.Put(ToUnsigned(block[i]))
		n++
	}

	return n, err
}

// Flush terminates a pending run and flushes the bitstream.
// The terminator of a pending run is not followed by a value: the decoder
// relies on the symbol count to tell it apart.
func (this *RLGREncoder) Flush() {
	if this.rl > 0 {
		// Bits already reserved at the start of the window
		kp := this.k >> 3
		this.bitstream.PutBits(1, 1)
		this.bitstream.PutBits(kp, this.rl)
		this.rl = 0
	}

	this.bitstream.Flush()
}

// BitStream returns the underlying bitstream
func (this *RLGREncoder) BitStream() llrice.OutputBitStream {
	return this.bitstream
}

// K returns the run parameter (fixed point, actual value << 3)
func (this *RLGREncoder) K() uint {
	return this.k
}

// KR returns the Rice parameter (fixed point, actual value << 3)
func (this *RLGREncoder) KR() uint {
	return this.kr
}

// Count returns the number of values encoded
func (this *RLGREncoder) Count() int {
	return this.count
}

const (
	_RLGR_DECODE = iota // next symbol requires reading the bitstream
	_RLGR_RUN           // pending zeros, optionally followed by a value
)

// RLGRDecoder is the decoder matching RLGREncoder. The number of symbols
// must be known in advance since the bitstream carries no end marker.
type RLGRDecoder struct {
	bitstream llrice.InputBitStream
	model     llrice.RiceParamModel
	k         uint
	kr        uint
	state     int
	rl        uint32 // pending zeros
	rlVal     uint32 // value following the pending zeros (0 if none)
	remaining int    // symbols not yet read from the bitstream
}

// NewRLGRDecoder creates a new instance of RLGRDecoder reading 'count'
// symbols from 'bs'.
func NewRLGRDecoder(bs llrice.InputBitStream, count int) (*RLGRDecoder, error) {
	return NewRLGRDecoderWithModel(bs, count, nil)
}

// NewRLGRDecoderWithModel creates a new instance of RLGRDecoder using the
// provided Rice parameter model. It must be of the same kind and in the
// same state as the model used by the encoder.
func NewRLGRDecoderWithModel(bs llrice.InputBitStream, count int, model llrice.RiceParamModel) (*RLGRDecoder, error) {
	if bs == nil {
		return nil, errors.New("RLGR codec: Invalid null bitstream parameter")
	}

	if count < 0 {
		return nil, errors.Errorf("RLGR codec: Invalid symbol count parameter %d", count)
	}

	this := &RLGRDecoder{}
	this.bitstream = bs
	this.model = model
	this.remaining = count
	this.state = _RLGR_DECODE
	return this, nil
}

// NewRLGRDecoderWithCtx creates a new instance of RLGRDecoder. The
// parameter model is selected by the 'paramModel' entry of the context.
func NewRLGRDecoderWithCtx(bs llrice.InputBitStream, ctx *map[string]any, count int) (*RLGRDecoder, error) {
	model, err := paramModelFromCtx(ctx)

	if err != nil {
		return nil, err
	}

	return NewRLGRDecoderWithModel(bs, count, model)
}

// NewRLGRDecoderForStore creates a new instance of RLGRDecoder reading
// 'count' symbols from a new paged bitstream over 'store' with the default
// reservation window.
func NewRLGRDecoderForStore(store *bitstream.PageStore, count int) (*RLGRDecoder, error) {
	ibs, err := bitstream.NewPagedInputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)

	if err != nil {
		return nil, err
	}

	return NewRLGRDecoder(ibs, count)
}

// Get decodes one unsigned value. Panics with a SyncError when reading
// past the declared symbol count.
func (this *RLGRDecoder) Get() uint32 {
	for {
		if this.state == _RLGR_RUN {
			if this.rl > 0 {
				this.rl--
				return 0
			}

			this.state = _RLGR_DECODE

			if v := this.rlVal; v != 0 {
				this.rlVal = 0
				return v
			}

			// Full window or end of stream
			continue
		}

		if this.remaining <= 0 {
			panic(bitstream.NewSyncError(bitstream.SYNC_READ_PAST_END, "RLGRDecoder.Get",
				"no symbol left to decode"))
		}

		kp := this.k >> 3

		if kp == 0 {
			return this.getDirect()
		}

		this.decodeRun(kp)
		this.state = _RLGR_RUN
	}
}

func (this *RLGRDecoder) getDirect() uint32 {
	krp := this.kr >> 3
	this.bitstream.Reserve(RLGR_DIRECT_RESERVE)
	v := ReadRice(this.bitstream, this.riceParam(krp))
	this.kr = adaptRice(this.kr, krp, v)

	if v == 0 {
		this.k = upK(this.k, RLGR_UP_K_DIRECT)
	} else {
		this.k = downK(this.k, RLGR_DOWN_K_DIRECT)
	}

	if this.model != nil {
		this.model.Update(v)
	}

	this.remaining--
	return v
}

// Read the code of a run window: either a full window or a partial run
// followed by a value (absent at the end of the stream).
func (this *RLGRDecoder) decodeRun(kp uint) {
	this.bitstream.Reserve(RLGR_RUN_RESERVE)

	if this.bitstream.PeekN(1) == 0 {
		this.bitstream.Skip(1)
		this.rl = 1 << kp
		this.rlVal = 0
		this.k = upK(this.k, RLGR_UP_K)
		this.consume(int(this.rl))

		if this.model != nil {
			this.model.Update(0)
		}

		return
	}

	this.bitstream.Skip(1)
	this.rl = this.bitstream.PeekN(kp)
	this.bitstream.Skip(kp)
	this.k = downK(this.k, RLGR_DOWN_K)
	this.consume(int(this.rl))
	this.rlVal = 0

	if this.remaining == 0 {
		// Terminator emitted by the encoder flush
		return
	}

	krp := this.kr >> 3
	v := ReadRice(this.bitstream, this.riceParam(krp))
	this.rlVal = v + 1
	this.kr = adaptRice(this.kr, krp, this.rlVal)
	this.remaining--

	if this.model != nil {
		this.model.Update(v)
	}
}

func (this *RLGRDecoder) consume(n int) {
	if n > this.remaining {
		panic(bitstream.NewSyncError(bitstream.SYNC_READ_PAST_END, "RLGRDecoder.Get",
			"run of %d zeros exceeds the %d remaining symbols", n, this.remaining))
	}

	this.remaining -= n
}

func (this *RLGRDecoder) riceParam(krp uint) uint {
	if this.model == nil {
		return krp
	}

	return this.model.Param(krp)
}

// GetSigned decodes one signed value (zig-zag mapped)
func (this *RLGRDecoder) GetSigned() int32 {
	return ToSigned(this.Get())
}

// Read decodes signed values from the bitstream and return them in the
// provided buffer. Return the number of values decoded.
func (this *RLGRDecoder) Read(block []int32) (n int, err error) {
	defer bitstream.RecoverSyncError(&err)

	for i := range block {
		block[i] = ToSigned(this.Get())
		n++
	}

	return n, err
}

// BitStream returns the underlying bitstream
func (this *RLGRDecoder) BitStream() llrice.InputBitStream {
	return this.bitstream
}

// K returns the run parameter (fixed point, actual value << 3)
func (this *RLGRDecoder) K() uint {
	return this.k
}

// KR returns the Rice parameter (fixed point, actual value << 3)
func (this *RLGRDecoder) KR() uint {
	return this.kr
}

// Remaining returns the number of symbols left to decode
func (this *RLGRDecoder) Remaining() int {
	res := this.remaining

	if this.state == _RLGR_RUN {
		res += int(this.rl)

		if this.rlVal != 0 {
			res++
		}
	}

	return res
}
