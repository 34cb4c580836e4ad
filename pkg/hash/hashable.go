package hash

// Hashable is implemented by any value that can write a deterministic,
// order-sensitive representation of itself into an Accumulator.
type Hashable interface {
	HashInto(acc Accumulator)
}

// Terminates variable-length fields so records stay prefix-free.
const fieldTerminator = 0xff

// String hashes its bytes followed by a terminator.
type String string

func (s String) HashInto(acc Accumulator) {
	acc.Write([]byte(s))
	acc.Write([]byte{fieldTerminator})
}

// Bytes hashes its contents followed by a terminator.
type Bytes []byte

func (b Bytes) HashInto(acc Accumulator) {
	acc.Write(b)
	acc.Write([]byte{fieldTerminator})
}

// Int64 hashes as 8 little-endian bytes.
type Int64 int64

func (i Int64) HashInto(acc Accumulator) {
	writeUint64(acc, uint64(i))
}

// Uint64 hashes as 8 little-endian bytes.
type Uint64 uint64

func (u Uint64) HashInto(acc Accumulator) {
	writeUint64(acc, uint64(u))
}

// Record hashes each field in order.
type Record []Hashable

func (r Record) HashInto(acc Accumulator) {
	for _, field := range r {
		field.HashInto(acc)
	}
}
