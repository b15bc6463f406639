// Package checklist builds, sanitizes, and evaluates the per-user module
// grant sheets that govern auditor and viewer accounts.
//
// Access rules:
//   - Roles outside the governed set (see Role.ChecklistGoverned) pass every
//     check; the checklist exists only for auditor and viewer.
//   - Governed roles fail closed: missing checklist, missing module, or
//     disabled module all mean no access.
//   - Checklists are mutated only through the sanitizing store path, and
//     only by a privileged caller (see CanAssign), never the owner.
package checklist

import (
	"sort"
	"strings"

	"github.com/dalemusser/carbonhub/internal/domain/models"
)

// Closed returns a fully-populated checklist with every grant off.
func Closed() models.Checklist { return build(false) }

// Open returns a fully-populated checklist with every grant on.
func Open() models.Checklist { return build(true) }

func build(on bool) models.Checklist {
	cl := make(models.Checklist, len(models.ModuleSections))
	for mod, sections := range models.ModuleSections {
		grant := models.ModuleGrant{
			Enabled:  on,
			Sections: make(map[models.SectionKey]bool, len(sections)),
		}
		for _, sec := range sections {
			grant.Sections[sec] = on
		}
		cl[mod] = grant
	}
	return cl
}

// Sanitize converts an arbitrary nested map into a complete checklist.
//
// Unknown module and section keys are discarded, non-boolean or missing
// values coerce to false, and absent modules come back fully closed. The
// result always has the full fixed shape, so Sanitize(Sanitize(x).Raw())
// equals Sanitize(x).
func Sanitize(raw map[string]any) models.Checklist {
	cl := Closed()
	for mod, sections := range models.ModuleSections {
		rawMod, ok := raw[string(mod)].(map[string]any)
		if !ok {
			continue
		}
		grant := cl[mod]
		grant.Enabled, _ = rawMod["enabled"].(bool)
		if rawSecs, ok := rawMod["sections"].(map[string]any); ok {
			for _, sec := range sections {
				if on, ok := rawSecs[string(sec)].(bool); ok && on {
					grant.Sections[sec] = true
				}
			}
		}
		cl[mod] = grant
	}
	return cl
}

// UnknownKeyError reports the module/section keys of a checklist payload
// that are not part of the fixed universe.
type UnknownKeyError struct {
	Keys []string
}

func (e *UnknownKeyError) Error() string {
	return "checklist contains unknown keys: " + strings.Join(e.Keys, ", ")
}

// Validate checks a raw checklist payload against the fixed universe and
// returns an *UnknownKeyError naming every stray key. The privileged
// update path calls this before Sanitize so a malformed payload is
// rejected whole, with nothing applied.
func Validate(raw map[string]any) error {
	var unknown []string
	for rawMod, v := range raw {
		sections, known := models.ModuleSections[models.ModuleKey(rawMod)]
		if !known {
			unknown = append(unknown, rawMod)
			continue
		}
		modMap, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for k, sv := range modMap {
			switch k {
			case "enabled":
			case "sections":
				secMap, ok := sv.(map[string]any)
				if !ok {
					continue
				}
				for sk := range secMap {
					if !sectionKnown(sections, models.SectionKey(sk)) {
						unknown = append(unknown, rawMod+"."+sk)
					}
				}
			default:
				unknown = append(unknown, rawMod+"."+k)
			}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownKeyError{Keys: unknown}
	}
	return nil
}

func sectionKnown(sections []models.SectionKey, sec models.SectionKey) bool {
	for _, s := range sections {
		if s == sec {
			return true
		}
	}
	return false
}

// HasModuleAccess reports whether the user may use the given module.
func HasModuleAccess(u *models.User, mod models.ModuleKey) bool {
	if u == nil || !u.Role.Valid() {
		return false
	}
	if !u.Role.ChecklistGoverned() {
		return true
	}
	grant, ok := u.Checklist[mod]
	return ok && grant.Enabled
}

// HasSectionAccess reports whether the user may use the given section. A
// disabled module disables all of its sections.
func HasSectionAccess(u *models.User, mod models.ModuleKey, sec models.SectionKey) bool {
	if u == nil || !u.Role.Valid() {
		return false
	}
	if !u.Role.ChecklistGoverned() {
		return true
	}
	grant, ok := u.Checklist[mod]
	if !ok || !grant.Enabled {
		return false
	}
	return grant.Sections[sec]
}

// CanAssign reports whether actor may set or edit target's checklist.
// Only governed roles carry one; the owner never edits their own sheet.
func CanAssign(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if !target.Role.ChecklistGoverned() {
		return false
	}
	if actor.ID == target.ID {
		return false
	}
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleClientAdmin:
		return target.ClientID != nil && actor.SameClient(*target.ClientID)
	}
	return false
}
