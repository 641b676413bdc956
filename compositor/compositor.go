// Package compositor implements the server-side surface model of a
// Wayland compositor: double-buffered surfaces, the views that place
// them into a scene, and the layered scene that input and rendering
// are resolved against.
//
// Nothing in this package is safe for concurrent use. All of it is
// meant to be driven from a single event loop goroutine.
package compositor

import "image"

// Buffer is a client-provided pixel buffer attached to a surface.
type Buffer interface {
	// Bounds returns the size of the buffer in buffer pixels.
	Bounds() image.Rectangle

	// Release notifies the client that the compositor is no longer
	// using the buffer and that it may be reused.
	Release()
}

// Callback is a pending frame callback.
type Callback interface {
	Done(serial uint32)
}

// CallbackFunc adapts a function to the Callback interface.
type CallbackFunc func(serial uint32)

func (f CallbackFunc) Done(serial uint32) {
	f(serial)
}

// RenderRequester is notified whenever a surface has new content that
// should be drawn.
type RenderRequester interface {
	RequestRender(s *Surface)
}
