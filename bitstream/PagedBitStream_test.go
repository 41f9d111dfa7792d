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

package bitstream

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// Run fn and return the kind of the SyncError it panics with (0 if none)
func syncKind(fn func()) (kind int) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyncError)

			if ok == false {
				panic(r)
			}

			kind = se.Kind()
		}
	}()

	fn()
	return 0
}

type bitField struct {
	n     uint
	value uint32
}

func randomFields(rnd *rand.Rand, count int) []bitField {
	res := make([]bitField, count)

	for i := range res {
		n := uint(rnd.Intn(33))
		v := rnd.Uint32()

		if n < 32 {
			v &= (1 << n) - 1
		}

		res[i] = bitField{n: n, value: v}
	}

	return res
}

func writeFields(store *PageStore, ringCapacity uint, fields []bitField) (*PagedOutputBitStream, error) {
	obs, err := NewPagedOutputBitStream(store, ringCapacity)

	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		obs.Reserve(f.n)
		obs.PutBits(f.n, f.value)
	}

	obs.Flush()
	return obs, nil
}

func readFields(store *PageStore, ringCapacity uint, fields []bitField) ([]bitField, error) {
	ibs, err := NewPagedInputBitStream(store, ringCapacity)

	if err != nil {
		return nil, err
	}

	res := make([]bitField, len(fields))

	for i, f := range fields {
		ibs.Reserve(f.n)
		res[i] = bitField{n: f.n, value: ibs.PeekN(f.n)}
		ibs.Skip(f.n)
	}

	return res, nil
}

func TestPageStore(t *testing.T) {
	store := NewPageStore(4)

	for i := 0; i < 3; i++ {
		if h := store.AcquirePage(); int(h) != i {
			t.Errorf("Invalid page handle: expected %d, got %d", i, h)
		}
	}

	store.Set(1, 0x0123456789ABCDEF)

	if store.Get(1) != 0x0123456789ABCDEF {
		t.Errorf("Invalid page value: %#x", store.Get(1))
	}

	for i := 0; i < 3; i++ {
		if h := store.NextReadPage(); int(h) != i {
			t.Errorf("Invalid read handle: expected %d, got %d", i, h)
		}
	}

	if kind := syncKind(func() { store.NextReadPage() }); kind != SYNC_READ_PAST_END {
		t.Errorf("Expected a read past end fault, got kind %d", kind)
	}

	if kind := syncKind(func() { store.Get(3) }); kind != SYNC_BAD_HANDLE {
		t.Errorf("Expected a bad handle fault, got kind %d", kind)
	}

	buf := store.Bytes()
	expected := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF}

	if cmp.Equal(buf[0:16], expected) != true {
		t.Errorf("Invalid wire format: %v", cmp.Diff(expected, buf[0:16]))
	}

	store2, err := NewPageStoreFromBytes(buf)

	if err != nil {
		t.Fatalf("Cannot create store: %v", err)
	}

	if cmp.Equal(store2.Pages(), store.Pages()) != true {
		t.Errorf("Invalid pages: %v", cmp.Diff(store.Pages(), store2.Pages()))
	}

	if _, err := NewPageStoreFromBytes(buf[1:]); err == nil {
		t.Errorf("Expected an error for a truncated page")
	}

	var out bytes.Buffer

	if n, err := store.WriteTo(&out); err != nil || n != int64(len(buf)) {
		t.Errorf("Invalid WriteTo result: %d, %v", n, err)
	}
}

func TestReservationRing(t *testing.T) {
	ring := NewReservationRing(3)

	if kind := syncKind(func() { ring.Take() }); kind != SYNC_RING_EMPTY {
		t.Errorf("Expected an empty ring fault, got kind %d", kind)
	}

	// Wrap around several times
	next := PageHandle(0)
	expected := PageHandle(0)

	for i := 0; i < 10; i++ {
		for ring.Full() == false {
			ring.Push(next)
			next++
		}

		if kind := syncKind(func() { ring.Push(next) }); kind != SYNC_RING_OVERFLOW {
			t.Errorf("Expected a ring overflow fault, got kind %d", kind)
		}

		if ring.Peek() != expected {
			t.Errorf("Invalid peeked handle: expected %d, got %d", expected, ring.Peek())
		}

		for j := 0; j < 2; j++ {
			if h := ring.Take(); h != expected {
				t.Errorf("Invalid handle: expected %d, got %d", expected, h)
			}

			expected++
		}
	}

	if ring.Len() != 1 || ring.Cap() != 3 {
		t.Errorf("Invalid ring state: len=%d cap=%d", ring.Len(), ring.Cap())
	}
}

func TestPagedBitStream(t *testing.T) {
	if err := testPagedCorrectness(); err != nil {
		t.Error(err)
	}

	if err := testPagedCounters(); err != nil {
		t.Error(err)
	}
}

func testPagedCorrectness() error {
	fmt.Printf("Correctness Test - paged bitstreams\n")
	rnd := rand.New(rand.NewSource(12345))

	for test := 1; test <= 20; test++ {
		ringCapacity := uint(MIN_RING_CAPACITY + test%(MAX_RING_CAPACITY-MIN_RING_CAPACITY+1))
		fields := randomFields(rnd, 100*test)
		store := NewPageStore(0)
		obs, err := writeFields(store, ringCapacity, fields)

		if err != nil {
			return err
		}

		expectedPages := int((obs.Written() + 63) / 64)

		if store.Len() < expectedPages {
			return errors.Errorf("Invalid number of pages: %d for %d bits", store.Len(), obs.Written())
		}

		res, err := readFields(store, ringCapacity, fields)

		if err != nil {
			return err
		}

		if cmp.Equal(res, fields, cmp.AllowUnexported(bitField{})) != true {
			return errors.Errorf("Test %d: invalid decoded fields: %v", test,
				cmp.Diff(fields, res, cmp.AllowUnexported(bitField{})))
		}

		fmt.Printf("Test %d: %d fields, %d bits, %d pages: OK\n", test, len(fields), obs.Written(), store.Len())
	}

	return nil
}

func testPagedCounters() error {
	fmt.Printf("Correctness Test - bit counters and alignment\n")
	store := NewPageStore(0)
	obs, _ := NewPagedOutputBitStream(store, DEFAULT_RING_CAPACITY)
	obs.Reserve(128)

	if obs.Available() < 128 {
		return errors.Errorf("Invalid available bits after reserve: %d", obs.Available())
	}

	obs.PutBits(3, 5)
	obs.ByteAlign()
	obs.PutBits(8, 0xA5)
	obs.PutBits(32, 0xDEADBEEF)

	if obs.Written() != 48 {
		return errors.Errorf("Invalid number of bits written: %d", obs.Written())
	}

	obs.Flush()
	expected := uint64(0xA0A5DEADBEEF0000)

	if store.Get(0) != expected {
		return errors.Errorf("Invalid first page: expected %#x, got %#x", expected, store.Get(0))
	}

	ibs, _ := NewPagedInputBitStream(store, DEFAULT_RING_CAPACITY)
	ibs.Reserve(64)

	if ibs.Peek32() != 0xA0A5DEAD {
		return errors.Errorf("Invalid peeked value: %#x", ibs.Peek32())
	}

	ibs.Skip(8)

	if v := ibs.PeekN(8); v != 0xA5 {
		return errors.Errorf("Invalid value: %#x", v)
	}

	ibs.Skip(8)

	if v := ibs.Peek32(); v != 0xDEADBEEF {
		return errors.Errorf("Invalid value: %#x", v)
	}

	ibs.Skip(32)

	if ibs.Read() != 48 || ibs.Available() != 16 {
		return errors.Errorf("Invalid reader counters: read=%d available=%d", ibs.Read(), ibs.Available())
	}

	return nil
}

func TestPagedStraddle(t *testing.T) {
	// 31 bits + 33 bits + 32 bits: every write but the first crosses or
	// ends on a page boundary
	store := NewPageStore(0)
	obs, _ := NewPagedOutputBitStream(store, 2)
	obs.Reserve(64)
	obs.PutBits(31, 0x7FFFFFFF)
	obs.PutBits(1, 0)
	obs.PutBits(32, 0x80000001)
	obs.Reserve(64)
	obs.PutBits(20, 0xFFFFF)
	obs.PutBits(24, 0x123456)
	obs.PutBits(20, 0xABCDE)
	obs.Flush()

	expected := []uint64{0xFFFFFFFE80000001, 0xFFFFF123456ABCDE}

	if cmp.Equal(store.Pages(), expected) != true {
		t.Errorf("Invalid pages: %v", cmp.Diff(expected, store.Pages()))
	}
}

func TestPagedReservationFaults(t *testing.T) {
	store := NewPageStore(0)
	obs, _ := NewPagedOutputBitStream(store, 2)

	if kind := syncKind(func() { obs.Reserve(129) }); kind != SYNC_RESERVE_TOO_LARGE {
		t.Errorf("Expected a reserve too large fault, got kind %d", kind)
	}

	// 2 pages hold 128 bits only when the accumulator is empty
	obs.Reserve(128)
	obs.PutBits(1, 1)

	if kind := syncKind(func() { obs.Reserve(128) }); kind != SYNC_RING_OVERFLOW {
		t.Errorf("Expected a ring overflow fault, got kind %d", kind)
	}

	obs.Flush()
	ibs, _ := NewPagedInputBitStream(store, 2)
	ibs.Reserve(128)

	if ibs.Available() != 128 {
		t.Errorf("Invalid available bits: %d", ibs.Available())
	}

	if kind := syncKind(func() { ibs.Skip(1); ibs.Reserve(128) }); kind != SYNC_READ_PAST_END {
		t.Errorf("Expected a read past end fault, got kind %d", kind)
	}

	if _, err := NewPagedOutputBitStream(store, 1); err == nil {
		t.Errorf("Expected an error for an invalid ring capacity")
	}

	if _, err := NewPagedInputBitStream(nil, 4); err == nil {
		t.Errorf("Expected an error for a null store")
	}
}

func TestPagedZeroPadding(t *testing.T) {
	if CHECKED {
		t.Skip("zero padding is reported as a fault in debug builds")
	}

	store := NewPageStore(0)
	obs, _ := NewPagedOutputBitStream(store, 2)
	obs.Reserve(10)
	obs.PutBits(10, 0x3FF)
	obs.Flush()

	ibs, _ := NewPagedInputBitStream(store, 2)
	ibs.Reserve(64)
	ibs.Skip(32)
	ibs.Skip(32)

	// Nothing reserved: the look-ahead reads as zeros
	ibs.Skip(16)

	if ibs.Peek32() != 0 || ibs.Available() != 0 {
		t.Errorf("Invalid state after skipping past the reserved bits")
	}
}

func TestDebugBitStream(t *testing.T) {
	store := NewPageStore(0)
	obs, _ := NewPagedOutputBitStream(store, DEFAULT_RING_CAPACITY)
	dbgobs, _ := NewDebugOutputBitStream(obs, os.Stdout)
	dbgobs.ShowByte(true)
	dbgobs.Mark(true)

	if kind := syncKind(func() { dbgobs.PutBits(8, 1) }); kind != SYNC_UNRESERVED {
		t.Errorf("Expected an unreserved write fault, got kind %d", kind)
	}

	dbgobs.Reserve(64)

	if kind := syncKind(func() { dbgobs.PutBits(4, 0x10) }); kind != SYNC_VALUE_TOO_WIDE {
		t.Errorf("Expected a value too wide fault, got kind %d", kind)
	}

	dbgobs.PutBits(4, 0x0A)
	dbgobs.PutBits(28, 0xBCDEF12)
	dbgobs.ByteAlign()
	dbgobs.Flush()
	fmt.Println()

	ibs, _ := NewPagedInputBitStream(store, DEFAULT_RING_CAPACITY)
	dbgibs, _ := NewDebugInputBitStream(ibs, os.Stdout)
	dbgibs.ShowByte(true)
	dbgibs.Mark(true)

	if kind := syncKind(func() { dbgibs.Peek32() }); kind != SYNC_UNRESERVED {
		t.Errorf("Expected an unreserved read fault, got kind %d", kind)
	}

	dbgibs.Reserve(32)

	if v := dbgibs.Peek32(); v != 0xABCDEF12 {
		t.Errorf("Invalid value: expected 0xABCDEF12, got %#x", v)
	}

	dbgibs.Skip(32)
	fmt.Println()

	if dbgibs.Read() != 32 || dbgobs.Written() != 32 {
		t.Errorf("Invalid bit counters: read=%d written=%d", dbgibs.Read(), dbgobs.Written())
	}

	if _, err := NewDebugOutputBitStream(nil, os.Stdout); err == nil {
		t.Errorf("Expected an error for a null delegate")
	}
}

func TestRecoverSyncError(t *testing.T) {
	run := func() (err error) {
		defer RecoverSyncError(&err)
		NewReservationRing(2).Take()
		return nil
	}

	err := run()

	if err == nil || IsSyncError(err) == false {
		t.Errorf("Expected a synchronization error, got %v", err)
	}

	if IsSyncError(errors.New("other")) {
		t.Errorf("Unexpected synchronization error")
	}
}

// Writes and reads issued only after matching reservations never fault
func FuzzPagedReservation(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 32, 31, 33, 64}, uint8(4))
	f.Add([]byte{32, 32, 32, 32, 32, 32, 32, 32, 32}, uint8(2))
	f.Add([]byte{7, 200, 13, 255, 1, 0, 0, 90}, uint8(32))

	f.Fuzz(func(t *testing.T, data []byte, capacity uint8) {
		ringCapacity := MIN_RING_CAPACITY + uint(capacity)%(MAX_RING_CAPACITY-MIN_RING_CAPACITY+1)
		fields := make([]bitField, 0, len(data))

		for i, b := range data {
			n := uint(b) % 33
			v := uint32(i)*0x9E3779B9 ^ uint32(b)<<24

			if n < 32 {
				v &= (1 << n) - 1
			}

			fields = append(fields, bitField{n: n, value: v})
		}

		var res []bitField

		kind := syncKind(func() {
			store := NewPageStore(0)

			if _, err := writeFields(store, ringCapacity, fields); err != nil {
				t.Fatal(err)
			}

			var err error

			if res, err = readFields(store, ringCapacity, fields); err != nil {
				t.Fatal(err)
			}
		})

		if kind != 0 {
			t.Fatalf("Unexpected synchronization fault of kind %d", kind)
		}

		if cmp.Equal(res, fields, cmp.AllowUnexported(bitField{})) != true {
			t.Fatalf("Invalid decoded fields: %v", cmp.Diff(fields, res, cmp.AllowUnexported(bitField{})))
		}
	})
}
