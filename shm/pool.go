package shm

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Pool is a region of client memory that buffers are created from. The
// compositor only ever reads from it.
type Pool struct {
	file *os.File
	mmap Mmap

	buffers   int
	destroyed bool
}

// NewPool maps size bytes of file. The pool takes ownership of file.
func NewPool(file *os.File, size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}

	mmap, err := Map(file, size, unix.PROT_READ)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &Pool{
		file: file,
		mmap: mmap,
	}, nil
}

// Size returns the number of bytes mapped.
func (p *Pool) Size() int {
	return len(p.mmap)
}

// Resize remaps the pool with a new size. Pools can only grow.
// Existing buffers remain valid.
func (p *Pool) Resize(size int) error {
	if p.destroyed {
		return ErrDestroyed
	}
	if size < len(p.mmap) {
		return fmt.Errorf("%w: cannot shrink from %v to %v", ErrInvalidSize, len(p.mmap), size)
	}
	if size == len(p.mmap) {
		return nil
	}

	mmap, err := Map(p.file, size, unix.PROT_READ)
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	old := p.mmap
	p.mmap = mmap
	return old.Unmap()
}

// CreateBuffer creates a buffer of the given geometry at offset bytes
// into the pool. The release function is called whenever the
// compositor is done with the buffer's current contents.
func (p *Pool) CreateBuffer(offset, width, height, stride int, format Format, release func()) (*Buffer, error) {
	if p.destroyed {
		return nil, ErrDestroyed
	}

	switch format {
	case FormatARGB8888, FormatXRGB8888:
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}

	if (width <= 0) || (height <= 0) || (offset < 0) || (stride != width*4) {
		return nil, fmt.Errorf("%w: %vx%v, stride %v, offset %v", ErrInvalidStride, width, height, stride, offset)
	}
	if offset+stride*height > len(p.mmap) {
		return nil, fmt.Errorf("%w: %v bytes at offset %v exceeds pool of %v", ErrInvalidStride, stride*height, offset, len(p.mmap))
	}

	p.buffers++
	return &Buffer{
		pool:    p,
		offset:  offset,
		width:   width,
		height:  height,
		stride:  stride,
		format:  format,
		release: release,
	}, nil
}

// Destroy destroys the pool. The memory stays mapped until every buffer
// created from it has also been destroyed.
func (p *Pool) Destroy() error {
	if p.destroyed {
		return nil
	}
	p.destroyed = true
	return p.free()
}

func (p *Pool) free() error {
	if !p.destroyed || (p.buffers > 0) {
		return nil
	}

	err := p.mmap.Unmap()
	p.mmap = nil
	return errors.Join(err, p.file.Close())
}
