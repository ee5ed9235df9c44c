package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

// RoleHRManager is the cohort notified when an evaluation response arrives.
const RoleHRManager = "Human Resource Manager"

// User is the directory view of an account: just enough to resolve a
// delivery target. The full account record belongs to the API layer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
