package pager

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	directio "github.com/ncw/directio"
)

// Page size - defaults to 4kb.
const PAGESIZE = int64(directio.BlockSize)

var ErrCorrupted = errors.New("open: filter file has been corrupted")

// Pagers read and write whole files in page-aligned blocks.
type Pager struct {
	file   *os.File // File descriptor.
	nPages int64    // The number of pages in the file.
}

// Construct a new Pager.
func NewPager() *Pager {
	return &Pager{}
}

// HasFile checks if the pager is backed by disk.
func (pager *Pager) HasFile() bool {
	return pager.file != nil
}

// GetFileName returns the file name.
func (pager *Pager) GetFileName() string {
	return filepath.Base(pager.file.Name())
}

// GetNumPages returns the number of pages.
func (pager *Pager) GetNumPages() int64 {
	return pager.nPages
}

// Open opens or creates the given file.
func (pager *Pager) Open(filename string) (err error) {
	// Create the necessary prerequisite directories.
	if idx := strings.LastIndex(filename, "/"); idx != -1 {
		err = os.MkdirAll(filename[:idx], 0775)
		if err != nil {
			return err
		}
	}
	pager.file, err = directio.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0666)
	if errors.Is(err, syscall.EINVAL) {
		// Filesystem without O_DIRECT (e.g. tmpfs); keep the aligned I/O pattern.
		pager.file, err = os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0666)
	}
	if err != nil {
		return err
	}
	info, err := pager.file.Stat()
	if err != nil {
		pager.file.Close()
		pager.file = nil
		return err
	}
	if info.Size()%PAGESIZE != 0 {
		pager.file.Close()
		pager.file = nil
		return ErrCorrupted
	}
	pager.nPages = info.Size() / PAGESIZE
	return nil
}

// ReadAll returns every page of the file, in order.
func (pager *Pager) ReadAll() ([]byte, error) {
	if !pager.HasFile() {
		return nil, errors.New("read: pager has no file")
	}
	block := directio.AlignedBlock(int(pager.nPages * PAGESIZE))
	if _, err := pager.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(pager.file, block); err != nil {
		return nil, err
	}
	return block, nil
}

// WriteAll replaces the file contents with data, zero-padded to a whole number of pages.
func (pager *Pager) WriteAll(data []byte) error {
	if !pager.HasFile() {
		return errors.New("write: pager has no file")
	}
	nPages := (int64(len(data)) + PAGESIZE - 1) / PAGESIZE
	block := directio.AlignedBlock(int(nPages * PAGESIZE))
	copy(block, data)
	if _, err := pager.file.WriteAt(block, 0); err != nil {
		return err
	}
	if nPages < pager.nPages {
		if err := pager.file.Truncate(nPages * PAGESIZE); err != nil {
			return err
		}
	}
	pager.nPages = nPages
	return pager.file.Sync()
}

// Close the underlying file.
func (pager *Pager) Close() (err error) {
	if pager.file != nil {
		err = pager.file.Close()
		pager.file = nil
	}
	return err
}

// WriteFile writes data to filename through a Pager.
func WriteFile(filename string, data []byte) error {
	pager := NewPager()
	if err := pager.Open(filename); err != nil {
		return err
	}
	if err := pager.WriteAll(data); err != nil {
		pager.Close()
		return err
	}
	return pager.Close()
}

// ReadFile reads every page of filename through a Pager.
func ReadFile(filename string) ([]byte, error) {
	pager := NewPager()
	if err := pager.Open(filename); err != nil {
		return nil, err
	}
	defer pager.Close()
	return pager.ReadAll()
}
