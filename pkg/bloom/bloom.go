// Package bloom implements a bloom filter whose positions come from enhanced
// double hashing: four digests are sampled from one evolving accumulator per
// item, and the upper two are alternated as salts over the repeat index.
package bloom

import (
	"fmt"

	bitstore "github.com/huhu99/bumblebloom/pkg/bitstore"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
)

// Filter is a bloom filter over a fixed-size bit array. It holds no locks;
// callers sharing a Filter must serialize Add and ClearAll against every
// other operation.
type Filter struct {
	bitsNum uint               // Clamped capacity; always equal to bits.Capacity().
	times   uint               // Number of positions consulted per item.
	kind    hash.Kind          // Accumulator used to derive base hashes.
	bits    *bitstore.BitStore // Owned bit array.
}

// New creates a Filter with the default xxhash accumulator.
func New(bitsNum uint, times uint) *Filter {
	return NewWithKind(bitsNum, times, hash.XxHashKind)
}

// NewWithKind creates a Filter deriving its base hashes with the given kind.
// A bitsNum of 0 is raised to 1; a times of 0 yields a filter that contains everything.
func NewWithKind(bitsNum uint, times uint, kind hash.Kind) *Filter {
	if bitsNum < 1 {
		bitsNum = 1
	}
	return &Filter{
		bitsNum: bitsNum,
		times:   times,
		kind:    kind,
		bits:    bitstore.New(bitsNum),
	}
}

// Get the number of addressable bits.
func (filter *Filter) BitsNum() uint {
	return filter.bitsNum
}

// Capacity is an alias of BitsNum.
func (filter *Filter) Capacity() uint {
	return filter.bitsNum
}

// Get the number of positions per item.
func (filter *Filter) Times() uint {
	return filter.times
}

// Get the accumulator kind.
func (filter *Filter) Kind() hash.Kind {
	return filter.kind
}

// Add sets every position of item.
func (filter *Filter) Add(item hash.Hashable) {
	if filter.times == 0 {
		return
	}
	h := hash.BaseHashes(filter.kind, item)
	for i := uint(0); i < filter.times; i++ {
		filter.bits.Set(filter.position(h, i), true)
	}
}

// Contains reports whether item might have been added. A false result is definite.
func (filter *Filter) Contains(item hash.Hashable) bool {
	if filter.times == 0 {
		return true
	}
	return filter.firstUnset(hash.BaseHashes(filter.kind, item)) == filter.times
}

// firstUnset checks positions in order and returns the first repeat whose bit
// is unset, or times if every bit is set.
func (filter *Filter) firstUnset(h [hash.NumBaseHashes]uint64) uint {
	for i := uint(0); i < filter.times; i++ {
		pos := filter.position(h, i)
		set, ok := filter.bits.Get(pos)
		if !ok {
			panic(fmt.Sprintf("bloom: derived position %d outside [0, %d)", pos, filter.bitsNum))
		}
		if !set {
			return i
		}
	}
	return filter.times
}

// ClearAll unsets every bit and returns the same filter.
func (filter *Filter) ClearAll() *Filter {
	filter.bits.Clear()
	return filter
}

// FillRatio returns the fraction of bits that are set.
func (filter *Filter) FillRatio() float64 {
	return float64(filter.bits.Count()) / float64(filter.bitsNum)
}

// position returns the i-th bit position, alternating h[2] and h[3] as the salt.
func (filter *Filter) position(h [hash.NumBaseHashes]uint64, i uint) uint {
	idx := uint64(i)
	selector := (idx + idx%2) % 4 / 2
	combined := idx + h[2+selector]
	return uint(combined % uint64(filter.bitsNum))
}
