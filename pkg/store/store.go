//Package store provides the read-only byte sources an ESE database is parsed from.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/C-Sto/goesedb/pkg/logger"
)

//Store is a read-only random access view of a database file
type Store interface {
	io.ReaderAt
	Size() int64
	Close() error
}

var errMmapUnsupported = errors.New("mmap not supported on this platform")

//memStore keeps the whole file in memory
type memStore struct {
	data []byte
}

//FromBytes wraps an in-memory image. The slice is not copied and must not be modified afterwards.
func FromBytes(b []byte) Store {
	return &memStore{data: b}
}

func (m *memStore) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("store: negative offset %d", off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memStore) Size() int64 { return int64(len(m.data)) }

func (m *memStore) Close() error {
	m.data = nil
	return nil
}

type readerAtStore struct {
	io.ReaderAt
	size int64
}

func (r readerAtStore) Size() int64 { return r.size }

func (r readerAtStore) Close() error {
	if c, ok := r.ReaderAt.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

//FromReaderAt adapts any ReaderAt of a known size. Close closes r if it is an io.Closer.
func FromReaderAt(r io.ReaderAt, size int64) Store {
	return readerAtStore{ReaderAt: r, size: size}
}

//Load reads the whole file into memory, the descriptor is closed before it returns
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(data), nil
}

//Open opens path for reading. With mmap set the file is mapped when the platform allows it,
//otherwise reads go through the file descriptor.
func Open(path string, mmap bool) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("store: %s is a directory", path)
	}
	size := fi.Size()
	if mmap && size > 0 {
		m, err := mapFile(f, size)
		if err == nil {
			//the mapping stays valid after the descriptor is closed
			f.Close()
			return m, nil
		}
		logger.Logger.Debug("mmap failed, falling back to file reads")
	}
	return FromReaderAt(f, size), nil
}
