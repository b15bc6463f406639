// Package accesspolicy resolves what slice of a client's data a user may
// see, expressed as an AccessContext the summary filter applies.
//
// Authorization rules:
//   - super_admin, consulting_admin, consultant, client_admin, auditor, and
//     viewer see client summaries unfiltered (auditor/viewer gating lives in
//     the checklist and audit layers, not here)
//   - client_employee_head sees the chart nodes they head, those nodes'
//     scope assignments, and reduction projects they are on
//   - employee sees only the scope assignments that list them as a member,
//     and reduction projects they are on; never whole nodes
//   - every failure resolves to the empty context: fail closed
package accesspolicy

import (
	"github.com/dalemusser/carbonhub/internal/domain/models"
)

// Key syntax for the category/activity allow-set.
const (
	KeySeparator = "::"
	Wildcard     = "*"
)

// CategoryActivityKey builds the composite grant key for a category and
// activity. An empty activity becomes the wildcard grant covering every
// activity of the category.
func CategoryActivityKey(category, activity string) string {
	if activity == "" {
		activity = Wildcard
	}
	return category + KeySeparator + activity
}

// AccessContext is the resolved data visibility for one user against one
// client: either full access, or explicit allow-sets.
type AccessContext struct {
	// FullAccess short-circuits every allow-set check.
	FullAccess bool
	// Role the context was resolved for.
	Role models.Role
	// NodeIDs are chart node ids (hex) the user may see whole.
	NodeIDs map[string]struct{}
	// ScopeIDs are scope assignment identifiers the user may see.
	ScopeIDs map[string]struct{}
	// CategoryActivityKeys are "category::activity" grants; the activity
	// part is "*" for assignments covering a whole category.
	CategoryActivityKeys map[string]struct{}
	// ReductionProjectIDs are reduction project ids (hex) the user may see.
	ReductionProjectIDs map[string]struct{}
}

// FullContext returns the unrestricted context for the given role.
func FullContext(role models.Role) AccessContext {
	return AccessContext{FullAccess: true, Role: role}
}

// EmptyContext returns the context that sees nothing. Every failure path
// resolves to this; applied downstream it produces the zeroed summary
// shell, never an error and never full access.
func EmptyContext(role models.Role) AccessContext {
	return AccessContext{
		Role:                 role,
		NodeIDs:              map[string]struct{}{},
		ScopeIDs:             map[string]struct{}{},
		CategoryActivityKeys: map[string]struct{}{},
		ReductionProjectIDs:  map[string]struct{}{},
	}
}

// Empty reports whether the context grants nothing at all.
func (c AccessContext) Empty() bool {
	return !c.FullAccess &&
		len(c.NodeIDs) == 0 &&
		len(c.ScopeIDs) == 0 &&
		len(c.CategoryActivityKeys) == 0 &&
		len(c.ReductionProjectIDs) == 0
}

// AllowsNode reports whether the given chart node id is visible.
func (c AccessContext) AllowsNode(id string) bool {
	if c.FullAccess {
		return true
	}
	_, ok := c.NodeIDs[id]
	return ok
}

// AllowsScope reports whether the given scope assignment identifier is
// visible.
func (c AccessContext) AllowsScope(id string) bool {
	if c.FullAccess {
		return true
	}
	_, ok := c.ScopeIDs[id]
	return ok
}

// AllowsCategoryActivity reports whether the category/activity pair is
// visible, either through an exact grant or the category wildcard.
func (c AccessContext) AllowsCategoryActivity(category, activity string) bool {
	if c.FullAccess {
		return true
	}
	if _, ok := c.CategoryActivityKeys[category+KeySeparator+activity]; ok {
		return true
	}
	_, ok := c.CategoryActivityKeys[category+KeySeparator+Wildcard]
	return ok
}

// AllowsProject reports whether the given reduction project id is visible.
func (c AccessContext) AllowsProject(id string) bool {
	if c.FullAccess {
		return true
	}
	_, ok := c.ReductionProjectIDs[id]
	return ok
}
