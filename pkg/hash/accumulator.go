package hash

import (
	"encoding/binary"
	"errors"
	"io"
	"strings"

	xxhash "github.com/cespare/xxhash"
	murmur3 "github.com/spaolacci/murmur3"
)

// Accumulator is an evolving 64-bit hash state. Sum64 reads the running
// digest without resetting it, so more data may be written afterwards.
type Accumulator interface {
	io.Writer
	Sum64() uint64
}

// Kind selects the hash function behind an Accumulator.
type Kind int64

const (
	XxHashKind Kind = 0
	MurmurKind Kind = 1
)

// Number of base hashes sampled per item.
const NumBaseHashes = 4

var ErrUnknownKind = errors.New("hash: unknown hash kind")

// String returns the name used on the command line.
func (kind Kind) String() string {
	switch kind {
	case XxHashKind:
		return "xxhash"
	case MurmurKind:
		return "murmur"
	default:
		return "unknown"
	}
}

// ParseKind maps a command-line name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "xxhash", "xx":
		return XxHashKind, nil
	case "murmur", "murmur3":
		return MurmurKind, nil
	default:
		return XxHashKind, ErrUnknownKind
	}
}

// NewAccumulator returns a fresh accumulator of the given kind.
// Unknown kinds fall back to xxhash.
func NewAccumulator(kind Kind) Accumulator {
	switch kind {
	case MurmurKind:
		return murmur3.New64()
	default:
		return xxhash.New()
	}
}

// BaseHashes feeds item into a single accumulator and samples its digest four
// times: after the item alone, then after each of the uint32 salts 1, 2 and 3.
func BaseHashes(kind Kind, item Hashable) [NumBaseHashes]uint64 {
	var hashes [NumBaseHashes]uint64
	acc := NewAccumulator(kind)
	item.HashInto(acc)
	hashes[0] = acc.Sum64()
	for i := 1; i < NumBaseHashes; i++ {
		writeUint32(acc, uint32(i))
		hashes[i] = acc.Sum64()
	}
	return hashes
}

func writeUint32(acc Accumulator, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	acc.Write(buf[:])
}

func writeUint64(acc Accumulator, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	acc.Write(buf[:])
}
