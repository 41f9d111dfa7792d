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

// Package llrice defines the top level interfaces used by the llrice
// lossless residual codec.
//
// The implementation of these interfaces are available in sub-folders
// like bitstream, entropy or io. The bitstream package provides the paged
// bit streams, the entropy package the Golomb-Rice and RLGR symbol coders
// and the io package the stream container used to store image channels.
package llrice

const (
	ERR_MISSING_PARAM       = 1
	ERR_INVALID_CODEC       = 3
	ERR_CREATE_COMPRESSOR   = 4
	ERR_CREATE_DECOMPRESSOR = 5
	ERR_OVERWRITE_FILE      = 7
	ERR_CREATE_FILE         = 8
	ERR_OPEN_FILE           = 10
	ERR_READ_FILE           = 11
	ERR_WRITE_FILE          = 12
	ERR_PROCESS_BLOCK       = 13
	ERR_INVALID_FILE        = 15
	ERR_STREAM_VERSION      = 16
	ERR_INVALID_PARAM       = 18
	ERR_CRC_CHECK           = 19
	ERR_SYNC                = 20
	ERR_UNKNOWN             = 127
)

const (
	// EXIT_SUCCESS is the process status of a successful run
	EXIT_SUCCESS = 0
	// EXIT_FAILURE is the process status for I/O and format errors
	EXIT_FAILURE = 1
	// EXIT_UNEXPECTED is the process status for any other failure
	EXIT_UNEXPECTED = 2
)

// OutputBitStream is a paged bitstream writer.
// Writes are unchecked: a call to Reserve must guarantee enough capacity
// before any sequence of PutBits calls.
type OutputBitStream interface {
	// Reserve guarantees that at least 'bits' bits can be written without
	// acquiring more pages. Panics with a synchronization fault if the
	// reservation window cannot hold that many bits.
	Reserve(bits uint)

	// PutBits writes the 'n' (in [0..32]) least significant bits of value.
	// The value must fit in 'n' bits.
	PutBits(n uint, value uint32)

	// ByteAlign drops bits so that the next write starts on a byte boundary.
	ByteAlign()

	// Flush pads the pending bits with zeros up to the next page boundary
	// and commits them. Called once at the end of a stream.
	Flush()

	// Available returns the number of bits reserved but not yet written
	Available() uint

	// Written returns the number of bits written
	Written() uint64
}

// InputBitStream is a paged bitstream reader.
// Reads are unchecked: a call to Reserve must guarantee enough valid bits
// before any sequence of Peek/Skip calls.
type InputBitStream interface {
	// Reserve guarantees that at least 'bits' bits can be read without
	// fetching more pages. Panics with a synchronization fault if the
	// reservation window cannot hold that many bits or if the underlying
	// storage has no more pages.
	Reserve(bits uint)

	// Peek32 returns the next 32 bits without consuming them
	Peek32() uint32

	// PeekN returns the next 'n' (in [0..32]) bits without consuming them
	PeekN(n uint) uint32

	// Skip consumes 'n' (in [0..32]) bits
	Skip(n uint)

	// Available returns the number of bits reserved but not yet consumed
	Available() uint

	// Read returns the number of bits read
	Read() uint64
}

// SymbolEncoder entropy encodes unsigned residuals to a bitstream
type SymbolEncoder interface {
	// Put encodes one zig-zag mapped residual
	Put(value uint32)

	// Write encodes the signed residuals provided into the bitstream.
	// Returns the number of values encoded.
	Write(block []int32) (int, error)

	// Flush terminates the symbol stream and flushes the bitstream.
	// No symbol can be encoded after a call to Flush.
	Flush()

	// BitStream returns the underlying bitstream
	BitStream() OutputBitStream
}

// SymbolDecoder entropy decodes unsigned residuals from a bitstream
type SymbolDecoder interface {
	// Get decodes one zig-zag mapped residual
	Get() uint32

	// Read decodes signed residuals from the bitstream and returns them
	// in the provided buffer. Returns the number of values decoded.
	Read(block []int32) (int, error)

	// BitStream returns the underlying bitstream
	BitStream() InputBitStream
}

// RiceParamModel is a strategy used by the adaptive coders to override the
// Golomb-Rice parameter computed by the additive adaptation.
// Encoder and decoder must use two identical models fed with the same
// sequence of updates.
type RiceParamModel interface {
	// Param returns the Rice parameter to use given the adapted one
	Param(adapted uint) uint

	// Update informs the model of the magnitude that was just coded
	Update(value uint32)

	// Reset clears the model state
	Reset()
}
