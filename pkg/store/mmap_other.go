//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package store

import "os"

func mapFile(f *os.File, size int64) (Store, error) {
	return nil, errMmapUnsupported
}
