// internal/domain/models/checklist.go
package models

// Checklist is the per-user grant sheet for auditor and viewer accounts:
// for each platform module, whether it is enabled and which of its sections
// are. The shape is fixed; persisted checklists always carry every module
// and every section (see the checklist package's Sanitize).
//
// Roles outside the checklist-governed set ignore checklists entirely.
type Checklist map[ModuleKey]ModuleGrant

// ModuleGrant holds the grants for one module.
type ModuleGrant struct {
	Enabled  bool                `bson:"enabled" json:"enabled"`
	Sections map[SectionKey]bool `bson:"sections" json:"sections"`
}

// ModuleKey identifies a platform module in a checklist.
type ModuleKey string

// SectionKey identifies a section inside a module.
type SectionKey string

const (
	ModuleDashboard         ModuleKey = "dashboard"
	ModuleOrganization      ModuleKey = "organization"
	ModuleDataEntry         ModuleKey = "data_entry"
	ModuleReports           ModuleKey = "reports"
	ModuleReductionProjects ModuleKey = "reduction_projects"
	ModuleAuditTrail        ModuleKey = "audit_trail"
)

const (
	SectionOverview  SectionKey = "overview"
	SectionAnalytics SectionKey = "analytics"

	SectionOrgChart     SectionKey = "org_chart"
	SectionProcessChart SectionKey = "process_chart"

	SectionEntries   SectionKey = "entries"
	SectionDocuments SectionKey = "documents"

	SectionSummary SectionKey = "summary"
	SectionExport  SectionKey = "export"

	SectionProjects SectionKey = "projects"
	SectionTargets  SectionKey = "targets"

	// Audit trail sections. SectionAuditList gates the listing itself; the
	// remaining sections mirror the audit-log module tags one-to-one. The
	// privileged "auth" tag has no section here on purpose: no checklist
	// can reach it.
	SectionAuditList              SectionKey = "list"
	SectionAuditUsers             SectionKey = "users"
	SectionAuditOrganization      SectionKey = "organization"
	SectionAuditDataEntry         SectionKey = "data_entry"
	SectionAuditReports           SectionKey = "reports"
	SectionAuditReductionProjects SectionKey = "reduction_projects"
	SectionAuditSettings          SectionKey = "settings"
)

// ModuleSections is the fixed checklist universe: every module and, per
// module, every section. This map is the single source of truth for
// sanitizing and validating checklists; a key absent here does not exist.
var ModuleSections = map[ModuleKey][]SectionKey{
	ModuleDashboard:         {SectionOverview, SectionAnalytics},
	ModuleOrganization:      {SectionOrgChart, SectionProcessChart},
	ModuleDataEntry:         {SectionEntries, SectionDocuments},
	ModuleReports:           {SectionSummary, SectionExport},
	ModuleReductionProjects: {SectionProjects, SectionTargets},
	ModuleAuditTrail: {
		SectionAuditList,
		SectionAuditUsers,
		SectionAuditOrganization,
		SectionAuditDataEntry,
		SectionAuditReports,
		SectionAuditReductionProjects,
		SectionAuditSettings,
	},
}

// Raw converts the checklist to the generic nested-map form used on the
// wire and in storage updates.
func (c Checklist) Raw() map[string]any {
	raw := make(map[string]any, len(c))
	for mod, grant := range c {
		sections := make(map[string]any, len(grant.Sections))
		for sec, on := range grant.Sections {
			sections[string(sec)] = on
		}
		raw[string(mod)] = map[string]any{
			"enabled":  grant.Enabled,
			"sections": sections,
		}
	}
	return raw
}
