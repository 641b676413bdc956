package shm

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func poolFile(t *testing.T, size int) *os.File {
	t.Helper()

	file, err := os.Create(filepath.Join(t.TempDir(), "pool"))
	if err != nil {
		t.Fatal(err)
	}
	err = file.Truncate(int64(size))
	if err != nil {
		t.Fatal(err)
	}
	return file
}

func TestCreateBuffer(t *testing.T) {
	file := poolFile(t, 4*4*4)
	pool, err := NewPool(file, 4*4*4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	tests := []struct {
		name                          string
		offset, width, height, stride int
		format                        Format
		err                           error
	}{
		{name: "Valid", width: 4, height: 4, stride: 16, format: FormatARGB8888},
		{name: "Offset", offset: 16, width: 4, height: 3, stride: 16, format: FormatXRGB8888},
		{name: "Format", width: 4, height: 4, stride: 16, format: 0x34325241, err: ErrInvalidFormat},
		{name: "Stride", width: 4, height: 4, stride: 12, format: FormatARGB8888, err: ErrInvalidStride},
		{name: "Empty", width: 0, height: 4, stride: 0, format: FormatARGB8888, err: ErrInvalidStride},
		{name: "Overflow", offset: 16, width: 4, height: 4, stride: 16, format: FormatARGB8888, err: ErrInvalidStride},
		{name: "NegativeOffset", offset: -4, width: 1, height: 1, stride: 4, format: FormatARGB8888, err: ErrInvalidStride},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf, err := pool.CreateBuffer(test.offset, test.width, test.height, test.stride, test.format, nil)
			if !errors.Is(err, test.err) {
				t.Fatalf("expected %v, got %v", test.err, err)
			}
			if err != nil {
				return
			}
			defer buf.Destroy()

			if b := buf.Bounds(); b != image.Rect(0, 0, test.width, test.height) {
				t.Fatalf("unexpected bounds: %v", b)
			}
		})
	}
}

func TestBufferImage(t *testing.T) {
	const size = 2 * 2 * 4
	file := poolFile(t, size)

	// Little-endian ARGB: blue, green, red, alpha.
	pixels := []byte{
		0x10, 0x20, 0x30, 0xff, 0, 0, 0, 0xff,
		0, 0, 0, 0xff, 0x40, 0x50, 0x60, 0x00,
	}
	_, err := file.WriteAt(pixels, 0)
	if err != nil {
		t.Fatal(err)
	}

	pool, err := NewPool(file, size)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	argb, err := pool.CreateBuffer(0, 2, 2, 8, FormatARGB8888, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer argb.Destroy()

	r, g, b, a := argb.Image().At(0, 0).RGBA()
	if (r>>8 != 0x30) || (g>>8 != 0x20) || (b>>8 != 0x10) || (a>>8 != 0xff) {
		t.Fatalf("unexpected ARGB pixel: %x %x %x %x", r, g, b, a)
	}
	if argb.Opaque() {
		t.Fatal("ARGB buffer reported as opaque")
	}

	xrgb, err := pool.CreateBuffer(0, 2, 2, 8, FormatXRGB8888, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer xrgb.Destroy()

	c := color.RGBAModel.Convert(xrgb.Image().At(1, 1)).(color.RGBA)
	if c != (color.RGBA{R: 0x60, G: 0x50, B: 0x40, A: 0xff}) {
		t.Fatalf("unexpected XRGB pixel: %v", c)
	}

	_, _, _, a = xrgb.Image().At(0, 1).RGBA()
	if a != 0xffff {
		t.Fatalf("XRGB pixel not opaque: %x", a)
	}
}

func TestRelease(t *testing.T) {
	file := poolFile(t, 4)
	pool, err := NewPool(file, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	var released int
	buf, err := pool.CreateBuffer(0, 1, 1, 4, FormatARGB8888, func() { released++ })
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	buf.Release()
	if released != 1 {
		t.Fatalf("expected one release, got %v", released)
	}
}

func TestResize(t *testing.T) {
	file := poolFile(t, 64)
	pool, err := NewPool(file, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	_, err = pool.CreateBuffer(0, 4, 4, 16, FormatARGB8888, nil)
	if !errors.Is(err, ErrInvalidStride) {
		t.Fatalf("expected ErrInvalidStride before resize, got %v", err)
	}

	err = pool.Resize(8)
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize when shrinking, got %v", err)
	}

	err = pool.Resize(64)
	if err != nil {
		t.Fatal(err)
	}
	if pool.Size() != 64 {
		t.Fatalf("unexpected size %v", pool.Size())
	}

	buf, err := pool.CreateBuffer(0, 4, 4, 16, FormatARGB8888, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf.Destroy()
}

func TestDestroyOrder(t *testing.T) {
	file := poolFile(t, 4)
	pool, err := NewPool(file, 4)
	if err != nil {
		t.Fatal(err)
	}

	buf, err := pool.CreateBuffer(0, 1, 1, 4, FormatARGB8888, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = pool.Destroy()
	if err != nil {
		t.Fatal(err)
	}
	if pool.Size() == 0 {
		t.Fatal("pool unmapped while a buffer is alive")
	}
	_, err = pool.CreateBuffer(0, 1, 1, 4, FormatARGB8888, nil)
	if !errors.Is(err, ErrDestroyed) {
		t.Fatalf("expected ErrDestroyed, got %v", err)
	}

	buf.Image().At(0, 0)

	err = buf.Destroy()
	if err != nil {
		t.Fatal(err)
	}
	if pool.Size() != 0 {
		t.Fatal("pool still mapped after last buffer was destroyed")
	}
}

func TestNewPoolInvalidSize(t *testing.T) {
	_, err := NewPool(poolFile(t, 4), 0)
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}
