// internal/domain/models/scopetypes.go
package models

// ScopeType identifies the GHG Protocol scope an emission belongs to.
//
// These values are stored on scope assignments, category rollups, and
// reduction projects and are used as stable keys; human-facing labels
// belong to the presentation layer.
type ScopeType string

const (
	ScopeType1 ScopeType = "scope_1" // direct emissions
	ScopeType2 ScopeType = "scope_2" // purchased energy
	ScopeType3 ScopeType = "scope_3" // value chain
)

// ScopeTypes is the full set of allowed scope type identifiers.
var ScopeTypes = []ScopeType{ScopeType1, ScopeType2, ScopeType3}

// Valid reports whether s is one of the defined scope types.
func (s ScopeType) Valid() bool {
	switch s {
	case ScopeType1, ScopeType2, ScopeType3:
		return true
	}
	return false
}
