package auth

import (
	"strings"
)

// Roles understood by the platform.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the caller as supplied by the authentication middleware. It is
// passed explicitly into every core call.
type Identity struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	ProjectID string `json:"projectId,omitempty"`
}

// System is the identity used by background jobs.
var System = Identity{UserID: "system", Role: RoleAdmin}

// IsAdmin reports whether the identity carries the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Authenticated reports whether the identity names a user.
func (i Identity) Authenticated() bool {
	return strings.TrimSpace(i.UserID) != ""
}

// CanEditProject reports whether the identity may change projectID's content.
func (i Identity) CanEditProject(projectID string) bool {
	if !i.Authenticated() {
		return false
	}
	if i.IsAdmin() {
		return true
	}
	return i.ProjectID != "" && i.ProjectID == projectID
}

// CanRevalidatePath reports whether the identity may trigger regeneration of
// path. Non-admins need their own project id as one of the path segments,
// so project "ann" cannot revalidate "/anna".
func (i Identity) CanRevalidatePath(path string) bool {
	if !i.Authenticated() {
		return false
	}
	if i.IsAdmin() {
		return true
	}
	if i.ProjectID == "" {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == i.ProjectID {
			return true
		}
	}
	return false
}

// NormalizeRole maps free-form claim values onto known roles.
func NormalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}
