/*
Package bitset implements a fixed capacity, packed array of bits.

The capacity is rounded up to whole 64-bit words at construction and
never changes afterwards. Indexes outside of the capacity, or a zero
capacity, are programming errors and cause a panic.
*/
package bitset

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	wordSize  = 64
	wordShift = 6
	wordMask  = wordSize - 1
)

// BitSet stores bits packed in 64-bit words. It is not safe for concurrent
// use.
type BitSet struct {
	capacity int
	words    []uint64
}

// New creates a bit set that can hold at least capacity bits. The actual
// capacity is the smallest multiple of 64 not less than capacity. It
// panics when capacity is not positive.
func New(capacity int) *BitSet {
	if capacity <= 0 {
		panic(fmt.Sprintf("bitset: invalid capacity %d", capacity))
	}

	n := wordIndex(capacity-1) + 1
	return &BitSet{
		capacity: n << wordShift,
		words:    make([]uint64, n),
	}
}

func wordIndex(index int) int {
	return index >> wordShift
}

func bitMask(index int) uint64 {
	return 1 << uint(index&wordMask)
}

func (b *BitSet) check(index int) {
	if index < 0 || index >= b.capacity {
		panic(fmt.Sprintf("bitset: index %d out of range [0, %d)", index, b.capacity))
	}
}

// Set sets the bit at index to value, and returns the previous value of
// the bit.
func (b *BitSet) Set(index int, value bool) bool {
	b.check(index)

	w, m := wordIndex(index), bitMask(index)
	old := b.words[w]&m != 0
	if value {
		b.words[w] |= m
	} else {
		b.words[w] &^= m
	}

	return old
}

// Get returns the bit at index.
func (b *BitSet) Get(index int) bool {
	b.check(index)
	return b.words[wordIndex(index)]&bitMask(index) != 0
}

// Capacity returns the number of addressable bits, always a multiple of
// 64.
func (b *BitSet) Capacity() int {
	return b.capacity
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	var c int
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}

	return c
}

// ClearAll unsets every bit, keeping the capacity.
func (b *BitSet) ClearAll() {
	clear(b.words)
}

// String returns the bits as a string of 0s and 1s, lowest index first.
func (b *BitSet) String() string {
	var sb strings.Builder
	sb.Grow(b.capacity)
	for i := 0; i < b.capacity; i++ {
		if b.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}
