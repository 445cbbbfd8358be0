// Package ringbitset implements a sliding window of boolean events on top
// of a packed bit set.
//
// The window keeps the last N events only, where each new event
// overwrites the oldest one, and it maintains the number of true events
// within the window, so that reading it never needs a scan.
package ringbitset

import (
	"fmt"

	"github.com/zalando/failrate/bitset"
)

// Ring is a circular window of bits. It is not safe for concurrent use:
// callers sharing a Ring need to serialize each call to SetNextBit
// together with any reads that depend on it.
type Ring struct {
	bits        *bitset.BitSet
	capacity    int
	next        int
	cardinality int
	length      int
}

// New creates a window of capacity events. The underlying storage may be
// larger, but only the requested capacity is used. It panics when capacity
// is not positive.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic(fmt.Sprintf("ringbitset: invalid capacity %d", capacity))
	}

	return &Ring{
		bits:     bitset.New(capacity),
		capacity: capacity,
	}
}

// SetNextBit records the next event, overwriting the oldest one when the
// window is full, and returns the number of true events in the window.
func (r *Ring) SetNextBit(value bool) int {
	old := r.bits.Set(r.next, value)
	if old {
		r.cardinality--
	}

	if value {
		r.cardinality++
	}

	r.next = (r.next + 1) % r.capacity
	if r.length < r.capacity {
		r.length++
	}

	return r.cardinality
}

// Cardinality returns the number of true events in the window.
func (r *Ring) Cardinality() int { return r.cardinality }

// Length returns the number of recorded events, at most the capacity.
func (r *Ring) Length() int { return r.length }

// Capacity returns the size of the window as requested at construction.
func (r *Ring) Capacity() int { return r.capacity }

// Full tells whether the window has seen at least capacity events.
func (r *Ring) Full() bool { return r.length == r.capacity }

// Reset drops all the recorded events.
func (r *Ring) Reset() {
	r.bits.ClearAll()
	r.next = 0
	r.cardinality = 0
	r.length = 0
}
