// internal/domain/models/roles.go
package models

// Role is the closed set of platform roles.
//
// Consulting-side roles (super_admin, consulting_admin, consultant) operate
// across clients; client-side roles are bound to exactly one client. Any
// value outside this set is treated as no access everywhere.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleConsultingAdmin Role = "consulting_admin"
	RoleConsultant      Role = "consultant"
	RoleClientAdmin     Role = "client_admin"
	RoleEmployeeHead    Role = "client_employee_head"
	RoleEmployee        Role = "employee"
	RoleAuditor         Role = "auditor"
	RoleViewer          Role = "viewer"
)

// Roles is the full set of allowed role identifiers, the single source of
// truth for validation and schema enums.
var Roles = []Role{
	RoleSuperAdmin,
	RoleConsultingAdmin,
	RoleConsultant,
	RoleClientAdmin,
	RoleEmployeeHead,
	RoleEmployee,
	RoleAuditor,
	RoleViewer,
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleConsultingAdmin, RoleConsultant, RoleClientAdmin,
		RoleEmployeeHead, RoleEmployee, RoleAuditor, RoleViewer:
		return true
	}
	return false
}

// FullSummaryAccess reports whether r sees unfiltered client summaries.
//
// Auditor and viewer belong here: their restrictions live in the checklist
// and audit layers, not in summary filtering.
func (r Role) FullSummaryAccess() bool {
	switch r {
	case RoleSuperAdmin, RoleConsultingAdmin, RoleConsultant, RoleClientAdmin,
		RoleAuditor, RoleViewer:
		return true
	}
	return false
}

// ChecklistGoverned reports whether r's module access is decided by the
// per-user checklist. Every other role passes checklist checks untouched.
func (r Role) ChecklistGoverned() bool {
	return r == RoleAuditor || r == RoleViewer
}

// ClientBound reports whether r must belong to exactly one client.
func (r Role) ClientBound() bool {
	switch r {
	case RoleClientAdmin, RoleEmployeeHead, RoleEmployee, RoleAuditor, RoleViewer:
		return true
	}
	return false
}
