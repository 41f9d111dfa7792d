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
	"strings"

	llrice "github.com/llrice/llrice-go"
	"github.com/pkg/errors"
)

const (
	NONE_TYPE = uint32(0) // No compression (32 bits per value)
	RLGR_TYPE = uint32(1) // Adaptive Run-Length Golomb-Rice
	RICE_TYPE = uint32(2) // Static Golomb-Rice
)

// NewEntropyEncoder creates a new symbol encoder using the provided type and bitstream
func NewEntropyEncoder(obs llrice.OutputBitStream, ctx map[string]any,
	entropyType uint32) (llrice.SymbolEncoder, error) {
	switch entropyType {

	case RLGR_TYPE:
		return NewRLGREncoderWithCtx(obs, &ctx)

	case RICE_TYPE:
		return NewRiceGolombEncoderWithCtx(obs, &ctx)

	case NONE_TYPE:
		return NewNullEntropyEncoder(obs)

	default:
		return nil, errors.Errorf("Unsupported entropy codec type: '%d'", entropyType)
	}
}

// NewEntropyDecoder creates a new symbol decoder using the provided type and
// bitstream. 'count' is the number of symbols to decode.
func NewEntropyDecoder(ibs llrice.InputBitStream, ctx map[string]any,
	entropyType uint32, count int) (llrice.SymbolDecoder, error) {
	switch entropyType {

	case RLGR_TYPE:
		return NewRLGRDecoderWithCtx(ibs, &ctx, count)

	case RICE_TYPE:
		return NewRiceGolombDecoderWithCtx(ibs, &ctx)

	case NONE_TYPE:
		return NewNullEntropyDecoder(ibs)

	default:
		return nil, errors.Errorf("Unsupported entropy codec type: '%d'", entropyType)
	}
}

// GetName returns the name of the entropy codec given its type
func GetName(entropyType uint32) (string, error) {
	switch entropyType {

	case RLGR_TYPE:
		return "RLGR", nil

	case RICE_TYPE:
		return "RICE", nil

	case NONE_TYPE:
		return "NONE", nil

	default:
		return "", errors.Errorf("Unsupported entropy codec type: '%d'", entropyType)
	}
}

// GetType returns the type of the entropy codec given its name
func GetType(entropyName string) (uint32, error) {
	switch strings.ToUpper(entropyName) {

	case "RLGR":
		return RLGR_TYPE, nil

	case "RICE":
		return RICE_TYPE, nil

	case "NONE":
		return NONE_TYPE, nil

	default:
		return 0, errors.Errorf("Unsupported entropy codec type: '%v'", entropyName)
	}
}
