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

package hash

import (
	stdhash "hash"
	"math/rand"
	"testing"
)

var _ stdhash.Hash64 = (*XXHash64)(nil)

func TestXXHash64Vectors(t *testing.T) {
	vectors := []struct {
		input    string
		expected uint64
	}{
		{"", 0xEF46DB3751D8E999},
		{"a", 0xD24EC4F1A98C6E5B},
		{"as", 0x1C330FB2D66BE179},
		{"asd", 0x631C37CE72A97393},
		{"asdf", 0x415872F599CEA71E},
	}

	h, _ := NewXXHash64(0)

	for _, v := range vectors {
		if res := h.Hash([]byte(v.input)); res != v.expected {
			t.Errorf("Invalid hash for '%s': expected %#x, got %#x", v.input, v.expected, res)
		}
	}
}

func TestXXHash64Streaming(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	data := make([]byte, 10000)
	rnd.Read(data)

	for _, seed := range []uint64{0, 0x0123456789ABCDEF} {
		h, _ := NewXXHash64(seed)
		expected := h.Hash(data)

		for test := 0; test < 20; test++ {
			h.Reset()
			remaining := data

			for len(remaining) > 0 {
				n := 1 + rnd.Intn(100)

				if n > len(remaining) {
					n = len(remaining)
				}

				h.Write(remaining[:n])
				remaining = remaining[n:]
			}

			if res := h.Sum64(); res != expected {
				t.Fatalf("Seed %#x: streaming hash %#x differs from %#x", seed, res, expected)
			}
		}

		if sum := h.Sum(nil); len(sum) != h.Size() {
			t.Errorf("Invalid digest length: %d", len(sum))
		}
	}
}
