// Package status provides the canonical account status values.
//
// A user's status is the active flag consulted by authentication: only
// Active accounts may sign in. The login guard writes Disabled on lockout
// and Active on unlock.
package status

// Account status values.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid returns true if s is a recognized status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

// Default returns the status for newly created accounts.
func Default() string {
	return Active
}

// FromActive maps the boolean active flag to its stored status value.
func FromActive(active bool) string {
	if active {
		return Active
	}
	return Disabled
}
