package compositor

import (
	"errors"
	"fmt"
)

var (
	// ErrRoleConflict is matched by errors returned when a surface is
	// asked to take on a role while it already has a different one.
	ErrRoleConflict = errors.New("surface already has another role")

	ErrInvalidScale     = errors.New("buffer scale must be positive")
	ErrInvalidTransform = errors.New("invalid buffer transform")
	ErrInvalidDamage    = errors.New("damage has negative size")
	ErrBadSibling       = errors.New("surface is not a sibling or the parent")
)

// Error codes of the wl_surface interface.
const (
	SurfaceErrorInvalidScale     uint32 = 0
	SurfaceErrorInvalidTransform uint32 = 1
)

// RoleConflictError is returned by SetRole when the surface already has
// a role that differs from the requested one.
type RoleConflictError struct {
	Have Role
	Want Role
}

func (err *RoleConflictError) Error() string {
	return fmt.Sprintf("surface already has role %v, cannot assign %v", err.Have, err.Want)
}

func (err *RoleConflictError) Is(target error) bool {
	return target == ErrRoleConflict
}
