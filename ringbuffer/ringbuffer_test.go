package ringbuffer

import (
	"testing"

	"pgregory.net/rapid"
)

func TestEmptyAtStart(t *testing.T) {
	b := New(4)
	if !b.Empty() || b.Full() || b.Len() != 0 {
		t.Fatalf("new buffer should be empty: len=%d empty=%v full=%v", b.Len(), b.Empty(), b.Full())
	}
}

func TestFillToCapacity(t *testing.T) {
	b := New(3)
	for i := uint32(0); i < 3; i++ {
		if !b.Add(i) {
			t.Fatalf("Add(%d) should succeed", i)
		}
	}
	if !b.Full() {
		t.Fatal("buffer should be full")
	}
	if b.Add(99) {
		t.Fatal("Add on full buffer should fail")
	}
}

func TestFIFOOrder(t *testing.T) {
	b := New(4)
	for _, v := range []uint32{1, 2, 3} {
		b.Add(v)
	}
	for _, want := range []uint32{1, 2, 3} {
		got, ok := b.Del()
		if !ok || got != want {
			t.Fatalf("Del() = %d, %v, want %d, true", got, ok, want)
		}
	}
	if !b.Empty() {
		t.Fatal("buffer should be empty after draining")
	}
}

func TestDelOnEmptyFails(t *testing.T) {
	b := New(2)
	if _, ok := b.Del(); ok {
		t.Fatal("Del on empty buffer should fail")
	}
}

func TestFlushResetsState(t *testing.T) {
	b := New(2)
	b.Add(1)
	b.Add(2)
	b.Flush()
	if !b.Empty() || b.Full() || b.Len() != 0 {
		t.Fatal("Flush should return the buffer to empty")
	}
	if !b.Add(7) {
		t.Fatal("buffer should accept writes after Flush")
	}
}

// TestLenNeverExceedsCapacity drives the buffer through a random
// sequence of Add/Del/Flush calls and checks the capacity and
// empty/full invariants never break, wrapping the head/tail indices
// many times over.
func TestLenNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 8).Draw(t, "cap")
		b := New(cap)

		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 200).Draw(t, "ops")
		for i, op := range ops {
			switch op {
			case 0:
				full := b.Full()
				ok := b.Add(uint32(i))
				if full && ok {
					t.Fatal("Add succeeded on a full buffer")
				}
			case 1:
				empty := b.Empty()
				_, ok := b.Del()
				if empty && ok {
					t.Fatal("Del succeeded on an empty buffer")
				}
			case 2:
				b.Flush()
			}

			if b.Len() < 0 || b.Len() > b.Cap() {
				t.Fatalf("Len() = %d out of range [0, %d]", b.Len(), b.Cap())
			}
			if b.Empty() && b.Full() && b.Cap() != 0 {
				t.Fatal("buffer reports both empty and full")
			}
		}
	})
}
