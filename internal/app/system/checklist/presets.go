// internal/app/system/checklist/presets.go
package checklist

import "github.com/dalemusser/carbonhub/internal/domain/models"

// Preset names accepted by Preset.
const (
	PresetClosed  = "closed"
	PresetOpen    = "open"
	PresetAuditor = "auditor_default"
	PresetViewer  = "viewer_default"
)

// Preset returns the named preset checklist. Unknown names report false.
func Preset(name string) (models.Checklist, bool) {
	switch name {
	case PresetClosed:
		return Closed(), true
	case PresetOpen:
		return Open(), true
	case PresetAuditor:
		return AuditorPreset(), true
	case PresetViewer:
		return ViewerPreset(), true
	}
	return nil, false
}

// AuditorPreset is the default sheet for new auditor accounts: the full
// audit trail plus read-only dashboard and report summaries.
func AuditorPreset() models.Checklist {
	cl := Closed()
	enable(cl, models.ModuleDashboard, models.SectionOverview)
	enable(cl, models.ModuleReports, models.SectionSummary)
	enable(cl, models.ModuleAuditTrail, models.ModuleSections[models.ModuleAuditTrail]...)
	return cl
}

// ViewerPreset is the default sheet for new viewer accounts: dashboards
// and report summaries, nothing that mutates or audits.
func ViewerPreset() models.Checklist {
	cl := Closed()
	enable(cl, models.ModuleDashboard, models.SectionOverview, models.SectionAnalytics)
	enable(cl, models.ModuleReports, models.SectionSummary)
	return cl
}

func enable(cl models.Checklist, mod models.ModuleKey, sections ...models.SectionKey) {
	grant := cl[mod]
	grant.Enabled = true
	for _, sec := range sections {
		grant.Sections[sec] = true
	}
	cl[mod] = grant
}
