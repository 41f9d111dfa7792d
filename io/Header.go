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

package io

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	llrice "github.com/llrice/llrice-go"
)

const (
	HEADER_SIZE       = 24
	STREAM_MAGIC      = 0x4C4C52 // "LLR"
	STREAM_REVISION   = 1
	MAX_CHANNELS      = 4
	MAX_IMAGE_SYMBOLS = 1 << 30

	FLAG_CHECKSUM    = 0x0001 // XXHash64 digest after each channel frame
	FLAG_RCT         = 0x0002 // reversible colour transform applied to RGB channels
	FLAG_PARAM_MODEL = 0x0004 // context model for the Rice parameter (RLGR)
)

var _CRC32C = crc32.MakeTable(crc32.Castagnoli)

// Header is the fixed 24 byte (3 pages) stream header.
// Layout (big endian):
//
//	0  magic "LLR" | revision
//	4  width
//	8  height
//	12 flags
//	14 channels
//	15 bits per channel sample
//	16 entropy codec type
//	17 entropy parameter (static Rice log base)
//	18 reserved (2 bytes)
//	20 CRC32C of bytes 0..19
type Header struct {
	Revision uint8
	Width    uint32
	Height   uint32
	Flags    uint16
	Channels uint8
	Depth    uint8
	Entropy  uint8
	LogBase  uint8
}

// Symbols returns the number of samples in one channel
func (this *Header) Symbols() int {
	return int(this.Width) * int(this.Height)
}

// HasFlag returns true if all the provided flags are set
func (this *Header) HasFlag(flags uint16) bool {
	return this.Flags&flags == flags
}

func (this *Header) validate() error {
	if this.Width == 0 || this.Height == 0 || uint64(this.Width)*uint64(this.Height) > MAX_IMAGE_SYMBOLS {
		errMsg := fmt.Sprintf("Invalid image dimensions: %dx%d", this.Width, this.Height)
		return &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
	}

	if this.Channels == 0 || this.Channels > MAX_CHANNELS {
		errMsg := fmt.Sprintf("Invalid number of channels: %d (must be in [1..%d])", this.Channels, MAX_CHANNELS)
		return &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
	}

	if this.Depth != 8 && this.Depth != 16 {
		errMsg := fmt.Sprintf("Invalid channel depth: %d (must be 8 or 16)", this.Depth)
		return &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
	}

	return nil
}

// MarshalBinary returns the wire format of the header
func (this *Header) MarshalBinary() ([]byte, error) {
	if err := this.validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, HEADER_SIZE)
	binary.BigEndian.PutUint32(buf[0:], STREAM_MAGIC<<8|uint32(this.Revision))
	binary.BigEndian.PutUint32(buf[4:], this.Width)
	binary.BigEndian.PutUint32(buf[8:], this.Height)
	binary.BigEndian.PutUint16(buf[12:], this.Flags)
	buf[14] = this.Channels
	buf[15] = this.Depth
	buf[16] = this.Entropy
	buf[17] = this.LogBase
	binary.BigEndian.PutUint32(buf[20:], crc32.Checksum(buf[0:20], _CRC32C))
	return buf, nil
}

// UnmarshalBinary parses and checks the wire format of the header.
// Returns an *IOError if the magic, revision or CRC is invalid.
func (this *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HEADER_SIZE {
		return &IOError{msg: "Truncated stream header", code: llrice.ERR_READ_FILE}
	}

	if magic := binary.BigEndian.Uint32(buf[0:]) >> 8; magic != STREAM_MAGIC {
		errMsg := fmt.Sprintf("Invalid stream type: expected %#x, got %#x", STREAM_MAGIC, magic)
		return &IOError{msg: errMsg, code: llrice.ERR_INVALID_FILE}
	}

	if rev := buf[3]; rev != STREAM_REVISION {
		errMsg := fmt.Sprintf("Invalid stream revision: expected %d, got %d", STREAM_REVISION, rev)
		return &IOError{msg: errMsg, code: llrice.ERR_STREAM_VERSION}
	}

	crc := crc32.Checksum(buf[0:20], _CRC32C)

	if expected := binary.BigEndian.Uint32(buf[20:]); crc != expected {
		errMsg := fmt.Sprintf("Corrupted stream header: expected CRC %08x, got %08x", expected, crc)
		return &IOError{msg: errMsg, code: llrice.ERR_CRC_CHECK}
	}

	this.Revision = buf[3]
	this.Width = binary.BigEndian.Uint32(buf[4:])
	this.Height = binary.BigEndian.Uint32(buf[8:])
	this.Flags = binary.BigEndian.Uint16(buf[12:])
	this.Channels = buf[14]
	this.Depth = buf[15]
	this.Entropy = buf[16]
	this.LogBase = buf[17]

	if err := this.validate(); err != nil {
		err.(*IOError).code = llrice.ERR_INVALID_FILE
		return err
	}

	return nil
}
