package shm

import (
	"image"

	"deedles.dev/ximage/format"
)

// Buffer is a rectangle of pixels inside of a pool.
type Buffer struct {
	pool    *Pool
	offset  int
	width   int
	height  int
	stride  int
	format  Format
	release func()

	destroyed bool
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

func (b *Buffer) Format() Format {
	return b.format
}

func (b *Buffer) Stride() int {
	return b.stride
}

// Release tells the client that it may reuse the buffer.
func (b *Buffer) Release() {
	if b.release != nil {
		b.release()
	}
}

// Opaque reports whether the buffer's alpha channel should be ignored.
func (b *Buffer) Opaque() bool {
	return b.format == FormatXRGB8888
}

func (b *Buffer) pix() []byte {
	return b.pool.mmap[b.offset : b.offset+b.stride*b.height]
}

// Image returns an image backed directly by the pool's memory. It is
// only valid until the pool is resized or the buffer is destroyed.
func (b *Buffer) Image() image.Image {
	if b.destroyed {
		return image.NewRGBA(image.Rectangle{})
	}

	f := format.Format(format.ARGB8888)
	if b.Opaque() {
		f = format.XRGB8888
	}

	return &format.Image{
		Format: f,
		Rect:   b.Bounds(),
		Pix:    b.pix(),
	}
}

// Destroy destroys the buffer. If its pool has already been destroyed
// and this was the last buffer, the pool's memory is unmapped.
func (b *Buffer) Destroy() error {
	if b.destroyed {
		return nil
	}
	b.destroyed = true
	b.pool.buffers--
	return b.pool.free()
}
