// Package mmapfile reads whole files via mmap rather than a buffered
// read(2) loop, which matters for the tile store's hot path: tiles are
// read far more often than written, and mmap maps the kernel's page cache
// directly for the common case of a tile already resident in memory.
// ReadFile still copies the mapped bytes into a fresh slice.
package mmapfile

import (
	"io"
	"os"
)

// ReadFile returns the full contents of the file at path, read via mmap
// where the platform supports it (see mmap_unix.go/mmap_other.go), falling
// back to a plain read on platforms without mmap support. The returned
// slice is a copy, safe to retain after this call returns and independent
// of the underlying mapping's lifetime.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(info.Size())
	if size == 0 {
		return []byte{}, nil
	}

	mapped, err := mmapFile(f.Fd(), size)
	if err != nil {
		return io.ReadAll(io.NewSectionReader(f, 0, info.Size()))
	}
	defer munmapFile(mapped)

	out := make([]byte, size)
	copy(out, mapped)
	return out, nil
}
