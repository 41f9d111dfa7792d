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

// Package hash provides the 64 bit digest used to verify the channel
// payloads of a stream.
package hash

import (
	"encoding/binary"
	"math/bits"
)

// XXHash64 is an extremely fast hash algorithm. It was written by Yann Collet.
// See https://github.com/Cyan4973/xxHash for the reference implementation.

const (
	_XXHASH_PRIME64_1 = uint64(0x9E3779B185EBCA87)
	_XXHASH_PRIME64_2 = uint64(0xC2B2AE3D27D4EB4F)
	_XXHASH_PRIME64_3 = uint64(0x165667B19E3779F9)
	_XXHASH_PRIME64_4 = uint64(0x85EBCA77C2b2AE63)
	_XXHASH_PRIME64_5 = uint64(0x27D4EB2F165667C5)

	_XXHASH_STRIPE = 32
)

// XXHash64 is a streaming digest implementing hash.Hash64
type XXHash64 struct {
	seed  uint64
	v     [4]uint64
	total uint64
	buf   [_XXHASH_STRIPE]byte
	n     int // bytes pending in buf
}

// NewXXHash64 creates a new instance of XXHash64
func NewXXHash64(seed uint64) (*XXHash64, error) {
	this := new(XXHash64)
	this.seed = seed
	this.Reset()
	return this, nil
}

// Reset restores the initial state (keeping the seed)
func (this *XXHash64) Reset() {
	this.v[0] = this.seed + _XXHASH_PRIME64_1 + _XXHASH_PRIME64_2
	this.v[1] = this.seed + _XXHASH_PRIME64_2
	this.v[2] = this.seed
	this.v[3] = this.seed - _XXHASH_PRIME64_1
	this.total = 0
	this.n = 0
}

// SetSeed sets the hash seed and resets the digest
func (this *XXHash64) SetSeed(seed uint64) {
	this.seed = seed
	this.Reset()
}

// Size returns the number of bytes Sum will return
func (this *XXHash64) Size() int {
	return 8
}

// BlockSize returns the stripe size of the hash
func (this *XXHash64) BlockSize() int {
	return _XXHASH_STRIPE
}

// Write adds more data to the running hash. It never returns an error.
func (this *XXHash64) Write(data []byte) (int, error) {
	length := len(data)
	this.total += uint64(length)

	if this.n+length < _XXHASH_STRIPE {
		this.n += copy(this.buf[this.n:], data)
		return length, nil
	}

	if this.n > 0 {
		c := copy(this.buf[this.n:], data)
		this.stripe(this.buf[:])
		data = data[c:]
		this.n = 0
	}

	for len(data) >= _XXHASH_STRIPE {
		this.stripe(data)
		data = data[_XXHASH_STRIPE:]
	}

	this.n = copy(this.buf[:], data)
	return length, nil
}

func (this *XXHash64) stripe(buf []byte) {
	this.v[0] = xxHash64Round(this.v[0], binary.LittleEndian.Uint64(buf[0:8]))
	this.v[1] = xxHash64Round(this.v[1], binary.LittleEndian.Uint64(buf[8:16]))
	this.v[2] = xxHash64Round(this.v[2], binary.LittleEndian.Uint64(buf[16:24]))
	this.v[3] = xxHash64Round(this.v[3], binary.LittleEndian.Uint64(buf[24:32]))
}

// Sum64 returns the current hash
func (this *XXHash64) Sum64() uint64 {
	var h64 uint64

	if this.total >= _XXHASH_STRIPE {
		v1, v2, v3, v4 := this.v[0], this.v[1], this.v[2], this.v[3]
		h64 = bits.RotateLeft64(v1, 1) + bits.RotateLeft64(v2, 7) +
			bits.RotateLeft64(v3, 12) + bits.RotateLeft64(v4, 18)
		h64 = xxHash64MergeRound(h64, v1)
		h64 = xxHash64MergeRound(h64, v2)
		h64 = xxHash64MergeRound(h64, v3)
		h64 = xxHash64MergeRound(h64, v4)
	} else {
		h64 = this.seed + _XXHASH_PRIME64_5
	}

	h64 += this.total
	data := this.buf[:this.n]
	n := 0

	for n+8 <= len(data) {
		h64 ^= xxHash64Round(0, binary.LittleEndian.Uint64(data[n:n+8]))
		h64 = bits.RotateLeft64(h64, 27)*_XXHASH_PRIME64_1 + _XXHASH_PRIME64_4
		n += 8
	}

	if n+4 <= len(data) {
		h64 ^= uint64(binary.LittleEndian.Uint32(data[n:n+4])) * _XXHASH_PRIME64_1
		h64 = bits.RotateLeft64(h64, 23)*_XXHASH_PRIME64_2 + _XXHASH_PRIME64_3
		n += 4
	}

	for n < len(data) {
		h64 ^= uint64(data[n]) * _XXHASH_PRIME64_5
		h64 = bits.RotateLeft64(h64, 11) * _XXHASH_PRIME64_1
		n++
	}

	h64 ^= h64 >> 33
	h64 *= _XXHASH_PRIME64_2
	h64 ^= h64 >> 29
	h64 *= _XXHASH_PRIME64_3
	return h64 ^ (h64 >> 32)
}

// Sum appends the current hash (big endian) to b
func (this *XXHash64) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, this.Sum64())
}

// Hash returns the hash of the provided data for the current seed.
// The running state is not modified.
func (this *XXHash64) Hash(data []byte) uint64 {
	h, _ := NewXXHash64(this.seed)
	h.Write(data)
	return h.Sum64()
}

func xxHash64Round(acc, val uint64) uint64 {
	acc += val * _XXHASH_PRIME64_2
	return bits.RotateLeft64(acc, 31) * _XXHASH_PRIME64_1
}

func xxHash64MergeRound(acc, val uint64) uint64 {
	acc ^= xxHash64Round(0, val)
	return acc*_XXHASH_PRIME64_1 + _XXHASH_PRIME64_4
}
