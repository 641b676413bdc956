package compositor

import "fmt"

// RoleKind identifies the state machine that governs a surface.
type RoleKind uint8

const (
	RoleNone RoleKind = iota
	RoleShell
	RoleCursor
	RoleSubsurface
)

func (k RoleKind) String() string {
	switch k {
	case RoleNone:
		return "none"
	case RoleShell:
		return "shell"
	case RoleCursor:
		return "cursor"
	case RoleSubsurface:
		return "subsurface"
	}

	return "unknown"
}

// Role is the capability a surface is bound to. ID refers to the object
// that owns the role's state, such as the shell surface's protocol ID or
// the pointer device's ID, so that the surface never holds the role
// state itself.
type Role struct {
	Kind RoleKind
	ID   uint32
}

func (r Role) String() string {
	if r.Kind == RoleNone {
		return r.Kind.String()
	}
	return fmt.Sprintf("%v@%v", r.Kind, r.ID)
}

// IsNone reports whether r is the absence of a role.
func (r Role) IsNone() bool {
	return r.Kind == RoleNone
}
