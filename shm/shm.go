// Package shm implements wl_shm pools: client memory shared through a
// file descriptor and carved up into pixel buffers.
package shm

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Error codes of the wl_shm interface.
const (
	ErrorInvalidFormat uint32 = 0
	ErrorInvalidStride uint32 = 1
	ErrorInvalidFD     uint32 = 2
)

var (
	ErrInvalidFormat = errors.New("unsupported buffer format")
	ErrInvalidStride = errors.New("invalid buffer size or stride")
	ErrInvalidSize   = errors.New("invalid pool size")
	ErrDestroyed     = errors.New("pool destroyed")
)

// Format is a wl_shm pixel format.
type Format uint32

const (
	FormatARGB8888 Format = 0
	FormatXRGB8888 Format = 1
)

func (f Format) String() string {
	switch f {
	case FormatARGB8888:
		return "argb8888"
	case FormatXRGB8888:
		return "xrgb8888"
	default:
		return "Format(" + strconv.FormatUint(uint64(f), 10) + ")"
	}
}

// Create creates an anonymous file in shared memory. It is mostly
// useful for tests that need to play the part of a client.
func Create() (*os.File, error) {
	path := "/dev/shm/wlcomp-" + strconv.FormatInt(time.Now().UnixNano(), 36)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	return file, os.Remove(path)
}

type Mmap []byte

// Map maps size bytes of file into memory, shared with every other
// process that maps it.
func Map(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})
	if cerr != nil {
		return nil, fmt.Errorf("control: %w", cerr)
	}

	return mmap, err
}

func (mmap Mmap) Unmap() error {
	if mmap == nil {
		return nil
	}
	return unix.Munmap(mmap)
}
