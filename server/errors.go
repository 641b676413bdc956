package server

import "fmt"

// DisplayObjectID is the ID of the wl_display singleton. Errors that
// are not about a particular object are posted to it.
const DisplayObjectID uint32 = 1

// Error codes of the wl_display interface.
const (
	DisplayErrorInvalidObject  uint32 = 0
	DisplayErrorImplementation uint32 = 3
)

// Error codes of the wl_subcompositor and wl_pointer interfaces.
const (
	SubcompositorErrorBadSurface uint32 = 0
	PointerErrorRole             uint32 = 0
)

// UnknownObjectError is returned when a request refers to an object ID
// that does not exist or that is not of the expected type.
type UnknownObjectError struct {
	ID   uint32
	Want string
}

func (err UnknownObjectError) Error() string {
	return fmt.Sprintf("unknown %v object %v", err.Want, err.ID)
}

// DuplicateObjectError is returned when a client tries to create an
// object with an ID that is already in use.
type DuplicateObjectError struct {
	ID uint32
}

func (err DuplicateObjectError) Error() string {
	return fmt.Sprintf("object ID %v already in use", err.ID)
}
