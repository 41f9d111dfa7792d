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
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	llrice "github.com/llrice/llrice-go"
	"github.com/llrice/llrice-go/bitstream"
	"github.com/pkg/errors"
)

func TestRLGR(b *testing.T) {
	if err := testEntropyCorrectness("RLGR"); err != nil {
		b.Error(err)
	}
}

func TestRice(b *testing.T) {
	if err := testEntropyCorrectness("RICE"); err != nil {
		b.Error(err)
	}
}

func TestNone(b *testing.T) {
	if err := testEntropyCorrectness("NONE"); err != nil {
		b.Error(err)
	}
}

func getEncoder(name string, obs llrice.OutputBitStream) llrice.SymbolEncoder {
	ctx := make(map[string]any)
	ctx["entropy"] = name
	eType, _ := GetType(name)

	res, err := NewEntropyEncoder(obs, ctx, eType)

	if err != nil {
		panic(err.Error())
	}

	return res
}

func getDecoder(name string, ibs llrice.InputBitStream, count int) llrice.SymbolDecoder {
	ctx := make(map[string]any)
	ctx["entropy"] = name
	eType, _ := GetType(name)

	res, err := NewEntropyDecoder(ibs, ctx, eType, count)

	if err != nil {
		panic(err.Error())
	}

	return res
}

// Encode the values, keep only the filled pages and decode from a padded copy
func roundTrip(name string, values []int32) ([]int32, int, error) {
	store := bitstream.NewPageStore(0)
	obs, _ := bitstream.NewPagedOutputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)
	enc := getEncoder(name, obs)

	if _, err := enc.Write(values); err != nil {
		return nil, 0, err
	}

	enc.Flush()
	used := int((obs.Written() + 63) / 64)
	size := used * bitstream.PAGE_BYTES
	rstore, err := bitstream.NewPageStoreFromBytes(store.Bytes()[0:size])

	if err != nil {
		return nil, 0, err
	}

	rstore.Pad(bitstream.DEFAULT_RING_CAPACITY)
	ibs, _ := bitstream.NewPagedInputBitStream(rstore, bitstream.DEFAULT_RING_CAPACITY)
	dec := getDecoder(name, ibs, len(values))
	res := make([]int32, len(values))

	if _, err := dec.Read(res); err != nil {
		return nil, 0, err
	}

	return res, size, nil
}

func testEntropyCorrectness(name string) error {
	fmt.Println()
	fmt.Printf("=== Testing %v ===\n", name)
	rnd := rand.New(rand.NewSource(int64(len(name))))

	for ii := 0; ii < 20; ii++ {
		var values []int32

		switch ii {
		case 0:
			values = []int32{}

		case 1:
			values = make([]int32, 1000) // all zeros

		case 2:
			values = make([]int32, 1000)

			for i := range values {
				values[i] = 7 // all identical
			}

		case 3:
			values = make([]int32, 1000)

			for i := range values {
				values[i] = int32(1 - 2*(i&1)) // alternating
			}

		case 4:
			values = []int32{0, 0, 32, 15, -4, 16, 0, 16, 0, 7, -1, -4, -32, 0, 31, -1}

		case 5:
			values = []int32{math.MaxInt32, math.MinInt32, 0, 0, 0, math.MinInt32, 1, 0, 0, math.MaxInt32}

		default:
			values = make([]int32, 1<<uint(ii-5))

			for i := range values {
				if rnd.Intn(100) < 70 {
					continue // mostly zeros
				}

				values[i] = int32(rnd.Intn(1<<uint(ii))) - int32(1<<uint(ii-1))
			}
		}

		res, size, err := roundTrip(name, values)

		if err != nil {
			return errors.Wrapf(err, "Test %d", ii)
		}

		if cmp.Equal(res, values) != true {
			return errors.Errorf("Test %d: decoded values differ: %v", ii, cmp.Diff(values, res))
		}

		fmt.Printf("Test %d: %d values => %d bytes: Identical\n", ii, len(values), size)
	}

	return nil
}

func TestRLGRSymbolCounts(b *testing.T) {
	// Every count in [0..100] and a few larger ones, for several shapes
	counts := make([]int, 0, 110)

	for n := 0; n <= 100; n++ {
		counts = append(counts, n)
	}

	counts = append(counts, 1000, 4095, 4096, 4097, 100000)
	rnd := rand.New(rand.NewSource(7))

	for _, n := range counts {
		shapes := map[string][]int32{
			"zeros":       make([]int32, n),
			"constant":    make([]int32, n),
			"alternating": make([]int32, n),
			"random":      make([]int32, n),
		}

		for i := 0; i < n; i++ {
			shapes["constant"][i] = -3
			shapes["alternating"][i] = int32(i&1) * 1000
			shapes["random"][i] = int32(rnd.Intn(1<<21)) - (1 << 20)
		}

		for shape, values := range shapes {
			res, _, err := roundTrip("RLGR", values)

			if err != nil {
				b.Fatalf("%s (%d values): %v", shape, n, err)
			}

			if cmp.Equal(res, values) != true {
				b.Fatalf("%s (%d values): decoded values differ: %v", shape, n, cmp.Diff(values, res))
			}
		}
	}
}

func TestRLGRScenario(b *testing.T) {
	values := []int32{0, 0, 0, 0, 0, 5, 0, 0, 0, 3}
	res, size, err := roundTrip("RLGR", values)

	if err != nil {
		b.Fatal(err)
	}

	if cmp.Equal(res, values) != true {
		b.Errorf("Decoded values differ: %v", cmp.Diff(values, res))
	}

	if size >= len(values) {
		b.Errorf("Encoded size %d is not smaller than %d bytes", size, len(values))
	}

	// Sparse inputs (at least 60% zeros) beat 8 bits per symbol
	rnd := rand.New(rand.NewSource(99))

	for test := 0; test < 10; test++ {
		values = make([]int32, 64+rnd.Intn(4096))

		for i := range values {
			if rnd.Intn(100) >= 60 {
				values[i] = int32(rnd.Intn(15)) - 7
			}
		}

		res, size, err = roundTrip("RLGR", values)

		if err != nil {
			b.Fatal(err)
		}

		if cmp.Equal(res, values) != true {
			b.Errorf("Decoded values differ: %v", cmp.Diff(values, res))
		}

		if size >= len(values) {
			b.Errorf("Encoded size %d is not smaller than %d bytes", size, len(values))
		}
	}
}

func TestRLGRFullWindow(b *testing.T) {
	for extra := 0; extra < 3; extra++ {
		store := bitstream.NewPageStore(0)
		enc, _ := NewRLGREncoderForStore(store)
		count := 0

		// Zeros in direct mode raise k until run mode is entered
		for enc.K()>>3 == 0 {
			enc.Put(0)
			count++
		}

		// One full window, then 'extra' zeros left in a pending run
		window := 1 << (enc.K() >> 3)

		for i := 0; i < window+extra; i++ {
			enc.Put(0)
			count++
		}

		if extra == 0 && enc.rl != 0 {
			b.Errorf("Expected a completed window, got a pending run of %d", enc.rl)
		}

		enc.Flush()
		dec, _ := NewRLGRDecoderForStore(store, count)

		for i := 0; i < count; i++ {
			if v := dec.Get(); v != 0 {
				b.Fatalf("Invalid value at %d: %d", i, v)
			}
		}

		if dec.Remaining() != 0 {
			b.Errorf("Invalid number of remaining symbols: %d", dec.Remaining())
		}

		kind := 0

		func() {
			defer func() {
				if r := recover(); r != nil {
					kind = r.(*bitstream.SyncError).Kind()
				}
			}()

			dec.Get()
		}()

		if kind != bitstream.SYNC_READ_PAST_END {
			b.Errorf("Expected a read past end fault, got kind %d", kind)
		}
	}
}

func TestRLGRParameterClamps(b *testing.T) {
	inputs := map[string]func(int) uint32{
		"zeros":       func(int) uint32 { return 0 },
		"large":       func(int) uint32 { return math.MaxUint32 },
		"alternating": func(i int) uint32 { return uint32(i&1) * math.MaxUint32 },
		"ramp":        func(i int) uint32 { return uint32(i) << 12 },
	}

	for name, gen := range inputs {
		store := bitstream.NewPageStore(0)
		enc, _ := NewRLGREncoderForStore(store)
		n := 20000

		for i := 0; i < n; i++ {
			enc.Put(gen(i))

			if enc.K() > RLGR_MAX_K || enc.KR() > RLGR_MAX_K {
				b.Fatalf("%s: parameters out of range at %d: k=%d kr=%d", name, i, enc.K(), enc.KR())
			}
		}

		enc.Flush()
		dec, _ := NewRLGRDecoderForStore(store, n)

		for i := 0; i < n; i++ {
			if v := dec.Get(); v != gen(i) {
				b.Fatalf("%s: invalid value at %d: expected %d, got %d", name, i, gen(i), v)
			}

			if dec.K() > RLGR_MAX_K || dec.KR() > RLGR_MAX_K {
				b.Fatalf("%s: parameters out of range at %d: k=%d kr=%d", name, i, dec.K(), dec.KR())
			}
		}

		fmt.Printf("%s: k=%d kr=%d\n", name, enc.K(), enc.KR())
	}
}

func TestAdaptRice(b *testing.T) {
	tests := []struct {
		kr, krp uint
		value   uint32
		want    uint
	}{
		{0, 0, 0, 0},
		{5, 3, 7, 3},
		{1, 2, 3, 0},
		{10, 2, 4, 10},
		{10, 2, 8, 12},
		{230, 0, 9, 239},
		{230, 0, 10, 240},
		{230, 0, 11, 240},
		{RLGR_MAX_K, 0, 2, RLGR_MAX_K},
		{RLGR_MAX_K, 0, math.MaxUint32, RLGR_MAX_K},
		{1, 0, math.MaxUint32, RLGR_MAX_K},
		{0, 31, math.MaxUint32, 0},
	}

	for _, tt := range tests {
		if got := adaptRice(tt.kr, tt.krp, tt.value); got != tt.want {
			b.Errorf("adaptRice(%d, %d, %#x): expected %d, got %d", tt.kr, tt.krp, tt.value, tt.want, got)
		}
	}
}

func TestRLGRInterleaved(b *testing.T) {
	// Three coders sharing one page store
	const coders = 3
	rnd := rand.New(rand.NewSource(31))
	store := bitstream.NewPageStore(0)
	encoders := make([]*RLGREncoder, coders)

	for i := range encoders {
		encoders[i], _ = NewRLGREncoderForStore(store)
	}

	order := make([]int, 30000)
	values := make([]uint32, len(order))

	for i := range order {
		order[i] = rnd.Intn(coders)

		if rnd.Intn(100) < 25*(order[i]+1) {
			values[i] = uint32(rnd.Intn(64 << uint(order[i])))
		}

		encoders[order[i]].Put(values[i])
	}

	for _, enc := range encoders {
		enc.Flush()
	}

	counts := make([]int, coders)

	for _, c := range order {
		counts[c]++
	}

	decoders := make([]*RLGRDecoder, coders)

	for i := range decoders {
		decoders[i], _ = NewRLGRDecoderForStore(store, counts[i])
	}

	for i, c := range order {
		if v := decoders[c].Get(); v != values[i] {
			b.Fatalf("Invalid value at %d (coder %d): expected %d, got %d", i, c, values[i], v)
		}
	}
}

func TestRLGRParamModel(b *testing.T) {
	ctx := map[string]any{"paramModel": "CM"}
	rnd := rand.New(rand.NewSource(5))
	values := make([]int32, 50000)

	for i := range values {
		if rnd.Intn(3) > 0 {
			values[i] = int32(rnd.NormFloat64() * 40)
		}
	}

	store := bitstream.NewPageStore(0)
	obs, _ := bitstream.NewPagedOutputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)
	enc, err := NewRLGREncoderWithCtx(obs, &ctx)

	if err != nil {
		b.Fatal(err)
	}

	if _, err := enc.Write(values); err != nil {
		b.Fatal(err)
	}

	enc.Flush()
	ibs, _ := bitstream.NewPagedInputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)
	dec, err := NewRLGRDecoderWithCtx(ibs, &ctx, len(values))

	if err != nil {
		b.Fatal(err)
	}

	res := make([]int32, len(values))

	if _, err := dec.Read(res); err != nil {
		b.Fatal(err)
	}

	if cmp.Equal(res, values) != true {
		b.Errorf("Decoded values differ: %v", cmp.Diff(values, res))
	}

	bad := map[string]any{"paramModel": "DMC"}

	if _, err := NewRLGREncoderWithCtx(obs, &bad); err == nil {
		b.Errorf("Expected an error for an unknown parameter model")
	}
}

func TestContextParamModel(b *testing.T) {
	model := NewContextParamModel()

	if model.Param(7) != 7 {
		b.Errorf("An empty model must return the adapted parameter")
	}

	// In the context of 3 bit values, 4 bit values follow twice as often
	// as 5 bit values
	for i := 0; i < 6; i++ {
		for _, v := range []uint32{5, 9, 5, 9, 5, 17} {
			model.Update(v)
		}
	}

	model.Update(5)

	if p := model.Param(2); p != 4 {
		b.Errorf("Invalid parameter: expected 4, got %d", p)
	}

	if p := model.Param(16); p != 16 {
		b.Errorf("Invalid parameter: expected 16, got %d", p)
	}

	model.Reset()

	if p := model.Param(2); p != 2 {
		b.Errorf("Invalid parameter after reset: expected 2, got %d", p)
	}

	// Saturated counters are halved
	for i := 0; i < 100; i++ {
		model.Update(0)
	}

	if n := model.counters[0] & 0x0F; n < 8 || n > 15 {
		b.Errorf("Invalid saturated counter: %d", n)
	}
}

func TestRiceIdempotence(b *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for m := uint(0); m <= 20; m++ {
		values := []uint32{0, 1, 2, math.MaxUint32, math.MaxUint32 - 1, 1 << 31}

		for i := 0; i < 2000; i++ {
			values = append(values, rnd.Uint32()>>uint(rnd.Intn(32)))
		}

		store := bitstream.NewPageStore(0)
		obs, _ := bitstream.NewPagedOutputBitStream(store, 2)

		for _, v := range values {
			obs.Reserve(RICE_MAX_CODE_LENGTH)
			before := obs.Written()
			WriteRice(obs, v, m)

			if n := uint(obs.Written() - before); n != RiceCodeLength(v, m) {
				b.Fatalf("m=%d x=%d: invalid code length %d (expected %d)", m, v, n, RiceCodeLength(v, m))
			}
		}

		obs.Flush()
		ibs, _ := bitstream.NewPagedInputBitStream(store, 2)

		for _, v := range values {
			ibs.Reserve(RICE_MAX_CODE_LENGTH)

			if r := ReadRice(ibs, m); r != v {
				b.Fatalf("m=%d: expected %d, got %d", m, v, r)
			}
		}
	}
}

func TestRiceEscapeBoundary(b *testing.T) {
	for m := uint(0); m <= 20; m++ {
		mask := uint32(1<<m) - 1
		below := uint32(31<<m) | mask // largest quotient before the escape
		above := uint32(32 << m)      // smallest escaped quotient
		store := bitstream.NewPageStore(0)
		obs, _ := bitstream.NewPagedOutputBitStream(store, 2)

		obs.Reserve(RICE_MAX_CODE_LENGTH)
		WriteRice(obs, below, m)

		if obs.Written() != uint64(32+m) {
			b.Errorf("m=%d: quotient 31 must not be escaped (%d bits)", m, obs.Written())
		}

		obs.Reserve(RICE_MAX_CODE_LENGTH)
		WriteRice(obs, above, m)

		if obs.Written() != uint64(32+m+RICE_MAX_CODE_LENGTH) {
			b.Errorf("m=%d: quotient 32 must be escaped (%d bits)", m, obs.Written()-uint64(32+m))
		}

		obs.Flush()
		ibs, _ := bitstream.NewPagedInputBitStream(store, 2)
		ibs.Reserve(RICE_MAX_CODE_LENGTH)

		if v := ReadRice(ibs, m); v != below {
			b.Errorf("m=%d: expected %d, got %d", m, below, v)
		}

		ibs.Reserve(RICE_MAX_CODE_LENGTH)

		if v := ReadRice(ibs, m); v != above {
			b.Errorf("m=%d: expected %d, got %d", m, above, v)
		}
	}
}

func TestZigZag(b *testing.T) {
	values := []int32{0, -1, 1, -2, 2, math.MaxInt32, math.MinInt32}
	expected := []uint32{0, 1, 2, 3, 4, math.MaxUint32 - 1, math.MaxUint32}
	res := make([]uint32, len(values))

	for i, v := range values {
		res[i] = ToUnsigned(v)

		if ToSigned(res[i]) != v {
			b.Errorf("Invalid inverse mapping for %d: %d", v, ToSigned(res[i]))
		}
	}

	if cmp.Equal(res, expected) != true {
		b.Errorf("Invalid zig-zag mapping: %v", cmp.Diff(expected, res))
	}
}

func TestReadPastCount(b *testing.T) {
	values := []int32{1, 0, 0, 4}
	store := bitstream.NewPageStore(0)
	obs, _ := bitstream.NewPagedOutputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)
	enc, _ := NewRLGREncoder(obs)
	enc.Write(values)
	enc.Flush()

	ibs, _ := bitstream.NewPagedInputBitStream(store, bitstream.DEFAULT_RING_CAPACITY)
	dec, _ := NewRLGRDecoder(ibs, len(values))
	res := make([]int32, len(values)+1)
	n, err := dec.Read(res)

	if err == nil || bitstream.IsSyncError(err) == false {
		b.Errorf("Expected a synchronization error, got %v", err)
	}

	if n != len(values) || cmp.Equal(res[0:n], values) != true {
		b.Errorf("Invalid decoded values: %v", res[0:n])
	}
}

func TestEntropyCodecFactory(b *testing.T) {
	for _, name := range []string{"RLGR", "RICE", "NONE"} {
		eType, err := GetType(name)

		if err != nil {
			b.Fatal(err)
		}

		if res, _ := GetName(eType); res != name {
			b.Errorf("Invalid codec name: expected %s, got %s", name, res)
		}
	}

	if _, err := GetType("HUFFMAN"); err == nil {
		b.Errorf("Expected an error for an unknown codec")
	}

	if _, err := NewEntropyEncoder(nil, nil, 99); err == nil {
		b.Errorf("Expected an error for an unknown codec type")
	}
}
