package pager

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPager(t *testing.T) {
	t.Run("RoundTrip", testRoundTrip)
	t.Run("Shrink", testShrink)
	t.Run("Corrupted", testCorrupted)
}

func testRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "f.bloom")
	data := bytes.Repeat([]byte{0xab}, int(PAGESIZE)+10)
	require.NoError(t, WriteFile(path, data))

	read, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, read, int(2*PAGESIZE))
	require.Equal(t, data, read[:len(data)])
	require.Equal(t, make([]byte, int(PAGESIZE)-10), read[len(data):])
}

func testShrink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bloom")
	require.NoError(t, WriteFile(path, make([]byte, 3*PAGESIZE)))
	require.NoError(t, WriteFile(path, []byte("small")))

	pager := NewPager()
	require.NoError(t, pager.Open(path))
	defer pager.Close()
	require.Equal(t, int64(1), pager.GetNumPages())
	require.Equal(t, "f.bloom", pager.GetFileName())
}

func testCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bloom")
	require.NoError(t, os.WriteFile(path, []byte("not a page"), 0666))
	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrCorrupted)
}
