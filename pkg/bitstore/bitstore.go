package bitstore

import (
	"errors"
	"fmt"
	"io"

	bitset "github.com/bits-and-blooms/bitset"
)

var ErrShortBits = errors.New("bitstore: raw bit array too short")

// BitStore is a fixed-capacity array of boolean cells.
type BitStore struct {
	capacity uint           // Number of addressable cells.
	bits     *bitset.BitSet // Backing bitset, exactly capacity bits long.
}

// New creates a BitStore with every cell unset.
func New(capacity uint) *BitStore {
	return &BitStore{capacity: capacity, bits: bitset.New(capacity)}
}

// Get capacity.
func (store *BitStore) Capacity() uint {
	return store.capacity
}

// Get returns the cell at pos; ok is false if pos is out of range.
func (store *BitStore) Get(pos uint) (value bool, ok bool) {
	if pos >= store.capacity {
		return false, false
	}
	return store.bits.Test(pos), true
}

// Set the cell at pos. The bitset grows on out-of-range writes, so those panic instead.
func (store *BitStore) Set(pos uint, value bool) {
	if pos >= store.capacity {
		panic(fmt.Sprintf("bitstore: position %d out of range [0, %d)", pos, store.capacity))
	}
	store.bits.SetTo(pos, value)
}

// Clear unsets every cell.
func (store *BitStore) Clear() {
	store.bits.ClearAll()
}

// Count returns the number of set cells.
func (store *BitStore) Count() uint {
	return store.bits.Count()
}

// RawBytes returns the number of bytes in the raw encoding.
func (store *BitStore) RawBytes() uint {
	return (store.capacity + 7) / 8
}

// WriteTo writes the raw bit array, cell i at byte i/8, bit i%8 (LSB0).
func (store *BitStore) WriteTo(w io.Writer) (int64, error) {
	raw := make([]byte, store.RawBytes())
	for i, e := store.bits.NextSet(0); e; i, e = store.bits.NextSet(i + 1) {
		raw[i>>3] |= 1 << (i & 7)
	}
	n, err := w.Write(raw)
	return int64(n), err
}

// ReadFrom replaces the contents with a raw bit array written by WriteTo.
func (store *BitStore) ReadFrom(r io.Reader) (int64, error) {
	raw := make([]byte, store.RawBytes())
	n, err := io.ReadFull(r, raw)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return int64(n), ErrShortBits
		}
		return int64(n), err
	}
	store.bits.ClearAll()
	for i := uint(0); i < store.capacity; i++ {
		if raw[i>>3]&(1<<(i&7)) != 0 {
			store.bits.Set(i)
		}
	}
	return int64(n), nil
}
