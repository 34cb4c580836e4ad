package bloom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	bitstore "github.com/huhu99/bumblebloom/pkg/bitstore"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
)

/*
   Encoded filter layout, big-endian:

   +-----------------+  8 bytes
   | bitsNum uint64  |
   +-----------------+  8 bytes
   | times uint64    |
   +-----------------+  ceil(bitsNum/8) bytes
   | raw bits (LSB0) |
   +-----------------+

   Anything after the raw bits (e.g. block padding) is ignored.
*/

const HeaderBytes = 16

var (
	ErrShortHeader = errors.New("bloom: encoded filter shorter than header")
	ErrBadBitsNum  = errors.New("bloom: encoded bitsNum out of range")
	ErrShortBits   = bitstore.ErrShortBits
)

const maxBitsNum = uint64(^uint(0))

// WriteTo encodes bitsNum, times and the raw bit array, in that order.
func (filter *Filter) WriteTo(w io.Writer) (int64, error) {
	var header [HeaderBytes]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(filter.bitsNum))
	binary.BigEndian.PutUint64(header[8:16], uint64(filter.times))
	n, err := w.Write(header[:])
	if err != nil {
		return int64(n), err
	}
	m, err := filter.bits.WriteTo(w)
	return int64(n) + m, err
}

// MarshalBinary returns the encoding written by WriteTo.
func (filter *Filter) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderBytes + int(filter.bits.RawBytes()))
	if _, err := filter.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a filter written by WriteTo. The accumulator kind is not
// part of the encoding and must match the one the filter was built with.
func Read(r io.Reader, kind hash.Kind) (*Filter, error) {
	var header [HeaderBytes]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrShortHeader
		}
		return nil, err
	}
	bitsNum := binary.BigEndian.Uint64(header[0:8])
	times := binary.BigEndian.Uint64(header[8:16])
	if bitsNum == 0 || bitsNum > maxBitsNum {
		return nil, ErrBadBitsNum
	}
	// Buffer the raw bits as they arrive so a lying header cannot force a huge allocation.
	rawLen := int64(rawBytes(bitsNum))
	var raw bytes.Buffer
	if n, err := io.CopyN(&raw, r, rawLen); err != nil {
		if err == io.EOF && n < rawLen {
			return nil, ErrShortBits
		}
		return nil, err
	}
	bits := bitstore.New(uint(bitsNum))
	if _, err := bits.ReadFrom(&raw); err != nil {
		return nil, err
	}
	return &Filter{
		bitsNum: uint(bitsNum),
		times:   uint(times),
		kind:    kind,
		bits:    bits,
	}, nil
}

// Decode is Read over a byte slice.
func Decode(data []byte, kind hash.Kind) (*Filter, error) {
	if len(data) >= HeaderBytes {
		bitsNum := binary.BigEndian.Uint64(data[0:8])
		if bitsNum != 0 && rawBytes(bitsNum) > uint64(len(data)-HeaderBytes) {
			return nil, ErrShortBits
		}
	}
	return Read(bytes.NewReader(data), kind)
}

// rawBytes is ceil(bitsNum/8) without overflowing near the top of the range.
func rawBytes(bitsNum uint64) uint64 {
	n := bitsNum / 8
	if bitsNum%8 != 0 {
		n++
	}
	return n
}
