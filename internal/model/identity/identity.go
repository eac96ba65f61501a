package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the organisational role attached to an authenticated user.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

var ErrInvalidIdentity = errors.New("invalid identity")

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

// Identity is the authenticated user as remembered by the client between runs.
type Identity struct {
	SubjectID   string `json:"username"`
	DisplayName string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
	AuthToken   string `json:"token,omitempty"`
}

// Validate checks the fields every persisted identity must carry.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.SubjectID) == "" {
		return fmt.Errorf("%w: subject id is empty", ErrInvalidIdentity)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, i.Role)
	}
	return nil
}

// Name returns the display name, falling back to the subject id.
func (i Identity) Name() string {
	if strings.TrimSpace(i.DisplayName) != "" {
		return i.DisplayName
	}
	return i.SubjectID
}
