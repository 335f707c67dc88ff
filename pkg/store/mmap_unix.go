//go:build linux || darwin || freebsd || netbsd || openbsd

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

type mmapStore struct {
	memStore
}

func mapFile(f *os.File, size int64) (Store, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mmapStore{memStore{data: data}}, nil
}

func (m *mmapStore) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
