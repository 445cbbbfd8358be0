package ringbitset

import (
	"math/rand"
	"testing"
)

func TestRing(t *testing.T) {
	expect := func(t *testing.T, r *Ring, cardinality, length int) {
		t.Helper()
		if r.Cardinality() != cardinality {
			t.Errorf("unexpected cardinality, got: %d, expected: %d", r.Cardinality(), cardinality)
		}

		if r.Length() != length {
			t.Errorf("unexpected length, got: %d, expected: %d", r.Length(), length)
		}
	}

	t.Run("empty", func(t *testing.T) {
		r := New(4)
		expect(t, r, 0, 0)
		if r.Full() {
			t.Error("empty window reported full")
		}
	})

	t.Run("length saturates at capacity", func(t *testing.T) {
		r := New(4)
		for _, step := range []struct {
			value               bool
			cardinality, length int
		}{
			{true, 1, 1},
			{false, 1, 2},
			{true, 2, 3},
			{true, 3, 4},
			{false, 2, 4},
		} {
			if c := r.SetNextBit(step.value); c != step.cardinality {
				t.Errorf("unexpected returned cardinality, got: %d, expected: %d", c, step.cardinality)
			}

			expect(t, r, step.cardinality, step.length)
		}

		if !r.Full() {
			t.Error("failed to report full window")
		}
	})

	t.Run("uses the requested capacity, not the padded storage", func(t *testing.T) {
		r := New(3)
		r.SetNextBit(true)
		r.SetNextBit(true)
		r.SetNextBit(true)
		r.SetNextBit(false)
		expect(t, r, 2, 3)

		if r.Capacity() != 3 {
			t.Errorf("unexpected capacity: %d", r.Capacity())
		}
	})

	t.Run("window of one", func(t *testing.T) {
		r := New(1)
		r.SetNextBit(true)
		expect(t, r, 1, 1)
		r.SetNextBit(false)
		expect(t, r, 0, 1)
		r.SetNextBit(true)
		expect(t, r, 1, 1)
	})

	t.Run("wraps through multiple words", func(t *testing.T) {
		const size = 314
		r := New(size)
		for range size + size/2 {
			r.SetNextBit(true)
		}

		expect(t, r, size, size)
	})

	t.Run("reset", func(t *testing.T) {
		r := New(5)
		for range 7 {
			r.SetNextBit(true)
		}

		r.Reset()
		expect(t, r, 0, 0)
		r.SetNextBit(false)
		expect(t, r, 0, 1)
		if r.Capacity() != 5 {
			t.Errorf("capacity changed: %d", r.Capacity())
		}
	})

	t.Run("invalid capacity", func(t *testing.T) {
		for _, c := range []int{0, -1} {
			func() {
				defer func() {
					if recover() == nil {
						t.Errorf("failed to panic for capacity %d", c)
					}
				}()

				New(c)
			}()
		}
	})
}

func TestRingMatchesLastEvents(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, capacity := range []int{1, 2, 5, 63, 64, 65, 200} {
		r := New(capacity)
		var events []bool
		for n := 1; n <= 3*capacity+7; n++ {
			v := rnd.Intn(3) == 0
			events = append(events, v)
			got := r.SetNextBit(v)

			from := max(0, len(events)-capacity)
			var expected int
			for _, e := range events[from:] {
				if e {
					expected++
				}
			}

			if got != expected || r.Cardinality() != expected {
				t.Fatalf(
					"capacity %d, after %d events: unexpected cardinality, got: %d, expected: %d",
					capacity, n, got, expected,
				)
			}

			if r.Length() != min(n, capacity) {
				t.Fatalf("capacity %d: unexpected length %d after %d events", capacity, r.Length(), n)
			}
		}
	}
}
