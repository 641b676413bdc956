package server

import (
	"image"

	"deedles.dev/wlcomp/pointer"
	"deedles.dev/wlcomp/shell"
)

// EventSink delivers events to a client. Object IDs are the client's
// protocol IDs.
type EventSink interface {
	// PostError sends a fatal protocol error about the given object.
	PostError(objectID, code uint32, msg string)

	Ping(shellSurfaceID, serial uint32)
	Configure(shellSurfaceID uint32, edges shell.Edge, width, height int32)

	// Done fires a frame callback with the time of the frame in
	// milliseconds.
	Done(callbackID, time uint32)

	Release(bufferID uint32)

	// DeleteID tells the client that an ID is no longer in use.
	DeleteID(id uint32)
}

// PointerSink is implemented by event sinks of clients that have bound
// a pointer. Surfaces are identified by their protocol IDs.
type PointerSink interface {
	Enter(surfaceID uint32, local image.Point, serial uint32)
	Leave(surfaceID, serial uint32)
	Motion(time uint32, local image.Point)
	Button(serial, time uint32, b pointer.Button, pressed bool)
}
