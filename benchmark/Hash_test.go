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

package benchmark

import (
	"testing"

	"github.com/llrice/llrice-go/hash"
)

func BenchmarkXXHash64(b *testing.B) {
	buffer := make([]byte, 1024*1024)

	for i := range buffer {
		buffer[i] = byte(i * i)
	}

	hash, err := hash.NewXXHash64(0)

	if err != nil {
		b.Fatalf("Failed to create XXHash64: %v\n", err)
	}

	b.SetBytes(int64(len(buffer)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hash.SetSeed(uint64(i))
		res := hash.Hash(buffer)

		// One shot and streaming digests must agree
		hash.Reset()
		hash.Write(buffer[0:12345])
		hash.Write(buffer[12345:])

		if hash.Sum64() != res {
			b.Fatalf("Incorrect result for XXHash64")
		}
	}
}
