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
	"strings"

	llrice "github.com/llrice/llrice-go"
	"github.com/pkg/errors"
)

const (
	PARAM_MODEL_NONE = uint32(0) // additive adaptation only
	PARAM_MODEL_CM   = uint32(1) // order 1 context model

	_CPM_SYMBOLS     = 16
	_CPM_MIN_TOTAL   = 16
	_CPM_MAX_PARAM   = 15
	_CPM_NIBBLE_LOW  = uint64(0x1111111111111111)
	_CPM_NIBBLE_HALF = uint64(0x7777777777777777)
	_CPM_NIBBLE_MASK = uint64(0x0F0F0F0F0F0F0F0F)
)

// ContextParamModel predicts the Golomb-Rice parameter from the bit width
// of the previously coded magnitude. For each of the 16 contexts it keeps
// 16 frequency counters (4 bits each, packed in a uint64) which are all
// halved when one of them saturates.
type ContextParamModel struct {
	counters [_CPM_SYMBOLS]uint64
	ctx      int
}

// NewContextParamModel creates a new instance of ContextParamModel
func NewContextParamModel() *ContextParamModel {
	return &ContextParamModel{}
}

// Param returns the most frequent bit width seen in the current context if
// the model is trusted and the adapted parameter is small enough.
// Otherwise it returns the adapted parameter.
func (this *ContextParamModel) Param(adapted uint) uint {
	if adapted > _CPM_MAX_PARAM || this.trusted() == false {
		return adapted
	}

	return uint(this.maxSymbol())
}

// Update records the bit width of the coded magnitude (capped at 15) in the
// current context and makes it the next context.
func (this *ContextParamModel) Update(value uint32) {
	sym := bits.Len32(value)

	if sym > _CPM_MAX_PARAM {
		sym = _CPM_MAX_PARAM
	}

	c := this.counters[this.ctx]
	shift := uint(sym) << 2

	if (c>>shift)&0x0F == 0x0F {
		c = (c >> 1) & _CPM_NIBBLE_HALF
	}

	this.counters[this.ctx] = c + (uint64(1) << shift)
	this.ctx = sym
}

// Reset clears all counters
func (this *ContextParamModel) Reset() {
	this.counters = [_CPM_SYMBOLS]uint64{}
	this.ctx = 0
}

// The context has seen enough symbols and is not too dispersed
func (this *ContextParamModel) trusted() bool {
	c := this.counters[this.ctx]
	n := nibbleTotal(c)
	return n >= _CPM_MIN_TOTAL && n >= 2*nibbleCount(c)
}

// Lowest symbol with the highest count
func (this *ContextParamModel) maxSymbol() int {
	c := this.counters[this.ctx]
	best, bestCount := 0, uint64(0)

	for s := 0; s < _CPM_SYMBOLS; s++ {
		if n := (c >> (uint(s) << 2)) & 0x0F; n > bestCount {
			best, bestCount = s, n
		}
	}

	return best
}

// Sum of the 16 nibbles (at most 240)
func nibbleTotal(c uint64) int {
	x := (c & _CPM_NIBBLE_MASK) + ((c >> 4) & _CPM_NIBBLE_MASK)
	return int((x * 0x0101010101010101) >> 56)
}

// Number of non zero nibbles
func nibbleCount(c uint64) int {
	x := c | (c >> 1)
	x |= x >> 2
	return bits.OnesCount64(x & _CPM_NIBBLE_LOW)
}

// NewRiceParamModel creates a Rice parameter model given its type.
// Returns nil for PARAM_MODEL_NONE.
func NewRiceParamModel(modelType uint32) (llrice.RiceParamModel, error) {
	switch modelType {
	case PARAM_MODEL_NONE:
		return nil, nil

	case PARAM_MODEL_CM:
		return NewContextParamModel(), nil

	default:
		return nil, errors.Errorf("Unsupported parameter model type: '%d'", modelType)
	}
}

// GetParamModelType returns the type of a parameter model given its name
func GetParamModelType(name string) (uint32, error) {
	switch strings.ToUpper(name) {
	case "NONE", "":
		return PARAM_MODEL_NONE, nil

	case "CM":
		return PARAM_MODEL_CM, nil

	default:
		return 0, errors.Errorf("Unsupported parameter model: '%v'", name)
	}
}

// GetParamModelName returns the name of a parameter model given its type
func GetParamModelName(modelType uint32) (string, error) {
	switch modelType {
	case PARAM_MODEL_NONE:
		return "NONE", nil

	case PARAM_MODEL_CM:
		return "CM", nil

	default:
		return "", errors.Errorf("Unsupported parameter model type: '%d'", modelType)
	}
}
