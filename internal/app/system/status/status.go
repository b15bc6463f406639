// internal/app/system/status/status.go

// Package status defines the canonical lifecycle states shared by users,
// clients, and reduction projects.
package status

const (
	Active   = "active"
	Disabled = "disabled"
	Archived = "archived"
)

// Valid reports whether s is a known status value.
func Valid(s string) bool {
	switch s {
	case Active, Disabled, Archived:
		return true
	}
	return false
}
