package bloom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	hash "github.com/huhu99/bumblebloom/pkg/hash"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	t.Run("Regression", testRegression)
	t.Run("Capacity", testCapacity)
	t.Run("ZeroTimes", testZeroTimes)
	t.Run("NoFalseNegatives", testNoFalseNegatives)
	t.Run("ClearAll", testClearAll)
	t.Run("Idempotence", testIdempotence)
	t.Run("Monotonicity", testMonotonicity)
	t.Run("Positions", testPositions)
	t.Run("EarlyExit", testEarlyExit)
	t.Run("Records", testRecords)
}

func testRegression(t *testing.T) {
	filter := New(1000, 5)
	filter.Add(hash.String("test1"))
	filter.Add(hash.String("test2"))
	require.True(t, filter.Contains(hash.String("test1")))
	require.True(t, filter.Contains(hash.String("test2")))
	require.False(t, filter.Contains(hash.String("test3")))
}

func testCapacity(t *testing.T) {
	require.Equal(t, uint(10), New(10, 5).Capacity())
	require.Equal(t, uint(1), New(0, 5).Capacity())
	require.Equal(t, uint(1), New(0, 5).BitsNum())

	filter := New(64, 3)
	for i := 0; i < 100; i++ {
		filter.Add(hash.Int64(i))
		if i%10 == 0 {
			filter.ClearAll()
		}
		require.Equal(t, uint(64), filter.Capacity())
	}
	require.Equal(t, uint(3), filter.Times())
}

func testZeroTimes(t *testing.T) {
	filter := New(100, 0)
	for i := 0; i < 50; i++ {
		require.True(t, filter.Contains(hash.Int64(i)))
	}
	filter.Add(hash.String("x"))
	require.Zero(t, filter.FillRatio())
}

func testNoFalseNegatives(t *testing.T) {
	for _, kind := range []hash.Kind{hash.XxHashKind, hash.MurmurKind} {
		t.Run(kind.String(), func(t *testing.T) {
			filter := NewWithKind(2048, 7, kind)
			for i := 0; i < 500; i++ {
				filter.Add(hash.String(fmt.Sprintf("key_%d", i)))
			}
			for i := 0; i < 500; i++ {
				require.True(t, filter.Contains(hash.String(fmt.Sprintf("key_%d", i))))
			}
		})
	}
	// A single bit is set by every item.
	tiny := New(0, 3)
	tiny.Add(hash.String("a"))
	require.True(t, tiny.Contains(hash.String("a")))
	require.True(t, tiny.Contains(hash.String("b")))
}

func testClearAll(t *testing.T) {
	filter := New(500, 4)
	for i := 0; i < 40; i++ {
		filter.Add(hash.Int64(i))
	}
	same := filter.ClearAll()
	require.Same(t, filter, same)
	require.Zero(t, filter.FillRatio())
	for i := 0; i < 40; i++ {
		require.False(t, filter.Contains(hash.Int64(i)))
	}
	require.Equal(t, uint(500), filter.BitsNum())
	require.Equal(t, uint(4), filter.Times())
}

func testIdempotence(t *testing.T) {
	once := New(300, 5)
	many := New(300, 5)
	once.Add(hash.String("dup"))
	for i := 0; i < 10; i++ {
		many.Add(hash.String("dup"))
	}
	a, err := once.MarshalBinary()
	require.NoError(t, err)
	b, err := many.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func testMonotonicity(t *testing.T) {
	filter := New(128, 3)
	probes := make([]bool, 200)
	for i := range probes {
		probes[i] = filter.Contains(hash.Int64(i))
	}
	for i := 0; i < 30; i++ {
		filter.Add(hash.Int64(1000 + i))
		for j := range probes {
			now := filter.Contains(hash.Int64(j))
			if probes[j] {
				require.True(t, now, "probe %d flipped to false", j)
			}
			probes[j] = now
		}
	}
}

func testPositions(t *testing.T) {
	const m = 1 << 20
	filter := New(m, 5)
	item := hash.String("positions")
	filter.Add(item)
	h := hash.BaseHashes(hash.XxHashKind, item)
	expected := []uint64{h[2] % m, (h[3] + 1) % m, (h[3] + 2) % m, (h[2] + 3) % m, (h[2] + 4) % m}
	for _, pos := range expected {
		set, ok := filter.bits.Get(uint(pos))
		require.True(t, ok)
		require.True(t, set, "position %d", pos)
	}
	require.LessOrEqual(t, filter.bits.Count(), uint(5))
}

func testEarlyExit(t *testing.T) {
	const m = 1 << 20
	filter := New(m, 5)
	item := hash.String("early")
	h := hash.BaseHashes(hash.XxHashKind, item)
	seen := make(map[uint]bool)
	for i := uint(0); i < 5; i++ {
		pos := filter.position(h, i)
		require.False(t, seen[pos], "positions must be distinct")
		seen[pos] = true
		filter.bits.Set(pos, true)
	}
	require.Equal(t, uint(5), filter.firstUnset(h))
	require.True(t, filter.Contains(item))

	// Checking stops at the first unset repeat even when later ones are unset too.
	filter.bits.Set(filter.position(h, 3), false)
	filter.bits.Set(filter.position(h, 1), false)
	require.Equal(t, uint(1), filter.firstUnset(h))
	require.False(t, filter.Contains(item))

	filter.bits.Set(filter.position(h, 1), true)
	require.Equal(t, uint(3), filter.firstUnset(h))
}

func testRecords(t *testing.T) {
	filter := New(4096, 6)
	filter.Add(hash.Record{hash.String("alice"), hash.Int64(42)})
	require.True(t, filter.Contains(hash.Record{hash.String("alice"), hash.Int64(42)}))
	require.False(t, filter.Contains(hash.Record{hash.Int64(42), hash.String("alice")}))
}

func TestCodec(t *testing.T) {
	filter := New(1000, 5)
	for i := 0; i < 20; i++ {
		filter.Add(hash.Int64(i))
	}
	var buf bytes.Buffer
	n, err := filter.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(HeaderBytes+125), n)

	// Trailing block padding is ignored.
	buf.Write(make([]byte, 37))
	decoded, err := Decode(buf.Bytes(), hash.XxHashKind)
	require.NoError(t, err)
	require.Equal(t, filter.BitsNum(), decoded.BitsNum())
	require.Equal(t, filter.Times(), decoded.Times())
	for i := 0; i < 20; i++ {
		require.True(t, decoded.Contains(hash.Int64(i)))
	}
	a, _ := filter.MarshalBinary()
	b, _ := decoded.MarshalBinary()
	require.Equal(t, a, b)

	_, err = Decode(make([]byte, 7), hash.XxHashKind)
	require.ErrorIs(t, err, ErrShortHeader)
	_, err = Decode(make([]byte, HeaderBytes), hash.XxHashKind)
	require.ErrorIs(t, err, ErrBadBitsNum)

	t.Run("OversizedHeader", func(t *testing.T) {
		corrupt := make([]byte, HeaderBytes+4)
		binary.BigEndian.PutUint64(corrupt[0:8], 1<<62)
		binary.BigEndian.PutUint64(corrupt[8:16], 3)
		_, err := Decode(corrupt, hash.XxHashKind)
		require.ErrorIs(t, err, ErrShortBits)
		_, err = Read(bytes.NewReader(corrupt), hash.XxHashKind)
		require.ErrorIs(t, err, ErrShortBits)
	})

	t.Run("TruncatedBits", func(t *testing.T) {
		_, err := Decode(a[:len(a)-1], hash.XxHashKind)
		require.ErrorIs(t, err, ErrShortBits)
		_, err = Read(bytes.NewReader(a[:len(a)-1]), hash.XxHashKind)
		require.ErrorIs(t, err, ErrShortBits)
	})
}

func BenchmarkContains(b *testing.B) {
	filter := New(100000, 7)
	for i := 0; i < 10000; i++ {
		filter.Add(hash.Int64(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		filter.Contains(hash.Int64(i))
	}
}
