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
	"math/bits"

	llrice "github.com/llrice/llrice-go"
)

const (
	// RICE_ESCAPE_QUOTIENT is the smallest quotient coded with the escape code
	RICE_ESCAPE_QUOTIENT = 32
	// RICE_MAX_CODE_LENGTH is the longest Golomb-Rice code (escape + raw value)
	RICE_MAX_CODE_LENGTH = 64
	// RICE_ESCAPE is the escape marker: a 32 bit sequence of ones
	RICE_ESCAPE = uint32(0xFFFFFFFF)
)

// WriteRice emits the Golomb-Rice code of x with parameter m (in [0..31]).
// The quotient is unary coded (ones terminated by a zero) followed by the
// m bit remainder. Quotients of 32 or more are replaced by the escape
// marker followed by the raw 32 bit value.
// RICE_MAX_CODE_LENGTH bits must have been reserved.
func WriteRice(obs llrice.OutputBitStream, x uint32, m uint) {
	q := x >> m

	if q >= RICE_ESCAPE_QUOTIENT {
		obs.PutBits(32, RICE_ESCAPE)
		obs.PutBits(32, x)
		return
	}

	// q ones and the terminating zero in one write
	obs.PutBits(uint(q)+1, uint32((uint64(1)<<q)-1)<<1)
	obs.PutBits(m, x&((1<<m)-1))
}

// ReadRice decodes a Golomb-Rice code with parameter m (in [0..31]).
// RICE_MAX_CODE_LENGTH bits must have been reserved.
func ReadRice(ibs llrice.InputBitStream, m uint) uint32 {
	peek := ibs.Peek32()

	if peek == RICE_ESCAPE {
		ibs.Skip(32)
		res := ibs.Peek32()
		ibs.Skip(32)
		return res
	}

	q := uint(bits.LeadingZeros32(^peek))
	ibs.Skip(q + 1)

	if m == 0 {
		return uint32(q)
	}

	r := ibs.PeekN(m)
	ibs.Skip(m)
	return r + uint32(q<<m)
}

// RiceCodeLength returns the number of bits of the Golomb-Rice code of x
func RiceCodeLength(x uint32, m uint) uint {
	if q := uint(x >> m); q < RICE_ESCAPE_QUOTIENT {
		return q + 1 + m
	}

	return RICE_MAX_CODE_LENGTH
}

// ToUnsigned maps a signed value to an unsigned one (zig-zag), small
// magnitudes giving small values: 0, -1, 1, -2, 2 ... => 0, 1, 2, 3, 4 ...
func ToUnsigned(v int32) uint32 {
	return (uint32(v) << 1) ^ uint32(v>>31)
}

// ToSigned is the inverse of ToUnsigned
func ToSigned(u uint32) int32 {
	return int32((u >> 1) ^ -(u & 1))
}
