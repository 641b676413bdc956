package compositor

import (
	"fmt"

	"golang.org/x/image/math/f64"
)

// OutputTransform mirrors the wl_output.transform enum that clients use
// to describe how the contents of their buffers are rotated.
type OutputTransform int32

const (
	TransformNormal OutputTransform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// Identity is the identity transform matrix.
var Identity = f64.Mat3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

var transforms = [...]f64.Mat3{
	TransformNormal:     Identity,
	Transform90:         {0, -1, 0, 1, 0, 0, 0, 0, 1},
	Transform180:        {-1, 0, 0, 0, -1, 0, 0, 0, 1},
	Transform270:        {0, 1, 0, -1, 0, 0, 0, 0, 1},
	TransformFlipped:    {-1, 0, 0, 0, 1, 0, 0, 0, 1},
	TransformFlipped90:  {0, 1, 0, 1, 0, 0, 0, 0, 1},
	TransformFlipped180: {1, 0, 0, 0, -1, 0, 0, 0, 1},
	TransformFlipped270: {0, -1, 0, -1, 0, 0, 0, 0, 1},
}

// Matrix returns the matrix corresponding to t.
func (t OutputTransform) Matrix() (f64.Mat3, error) {
	if (t < 0) || (int(t) >= len(transforms)) {
		return Identity, fmt.Errorf("%w: %d", ErrInvalidTransform, int32(t))
	}
	return transforms[t], nil
}

func (t OutputTransform) String() string {
	switch t {
	case TransformNormal:
		return "normal"
	case Transform90:
		return "90"
	case Transform180:
		return "180"
	case Transform270:
		return "270"
	case TransformFlipped:
		return "flipped"
	case TransformFlipped90:
		return "flipped-90"
	case TransformFlipped180:
		return "flipped-180"
	case TransformFlipped270:
		return "flipped-270"
	}

	return "unknown"
}

// swapsAxes reports whether m exchanges the horizontal and vertical
// axes, as quarter turns do.
func swapsAxes(m f64.Mat3) bool {
	return (m[0] == 0) && (m[4] == 0)
}
