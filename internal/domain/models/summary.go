// internal/domain/models/summary.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Summary is the pre-aggregated emissions rollup for one client and
// reporting period, produced upstream by the aggregation pipeline and
// consumed read-only by the access layer.
//
// The parallel trees are keyed as follows:
//   - ByNode: chart node id (hex)
//   - ByCategory: category name; activities nested per category
//   - ByScopeID: scope assignment identifier
//   - ByDepartment / ByLocation: the tag values on nodes
//
// Each node leaf carries its own embedded scope-type breakdown and each
// category leaf its scope-type tag, so restricted views can be rebuilt
// from retained leaves alone.
type Summary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	ClientID primitive.ObjectID `bson:"client_id" json:"client_id"`
	Period   string             `bson:"period" json:"period"` // e.g. "2026" or "2026-Q1"

	Totals      EmissionTotals               `bson:"totals" json:"totals"`
	ByScopeType map[ScopeType]EmissionTotals `bson:"by_scope_type" json:"by_scope_type"`

	ByNode       map[string]NodeSummary       `bson:"by_node" json:"by_node"`
	ByCategory   map[string]CategorySummary   `bson:"by_category" json:"by_category"`
	ByScopeID    map[string]EmissionTotals    `bson:"by_scope_id" json:"by_scope_id"`
	ByDepartment map[string]EmissionTotals    `bson:"by_department" json:"by_department"`
	ByLocation   map[string]EmissionTotals    `bson:"by_location" json:"by_location"`

	Reductions ReductionSummary `bson:"reductions" json:"reductions"`

	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`
}

// EmissionTotals is one numeric leaf of the rollup.
type EmissionTotals struct {
	CO2e    float64 `bson:"co2e" json:"co2e"` // tonnes CO2e
	Entries int64   `bson:"entries" json:"entries"`
}

// Add returns the element-wise sum of two totals.
func (t EmissionTotals) Add(o EmissionTotals) EmissionTotals {
	return EmissionTotals{CO2e: t.CO2e + o.CO2e, Entries: t.Entries + o.Entries}
}

// NodeSummary is the rollup for one chart node.
type NodeSummary struct {
	Name        string                       `bson:"name" json:"name"`
	Department  string                       `bson:"department,omitempty" json:"department,omitempty"`
	Location    string                       `bson:"location,omitempty" json:"location,omitempty"`
	Totals      EmissionTotals               `bson:"totals" json:"totals"`
	ByScopeType map[ScopeType]EmissionTotals `bson:"by_scope_type" json:"by_scope_type"`
}

// CategorySummary is the rollup for one emission category across the
// client, broken down by activity.
type CategorySummary struct {
	ScopeType  ScopeType                 `bson:"scope_type" json:"scope_type"`
	Totals     EmissionTotals            `bson:"totals" json:"totals"`
	ByActivity map[string]EmissionTotals `bson:"by_activity" json:"by_activity"`
}

// ReductionSummary is the reduction-project block of the rollup: per-project
// leaves plus rollups over every grouping dimension.
type ReductionSummary struct {
	Totals        ReductionTotals               `bson:"totals" json:"totals"`
	ByProject     map[string]ProjectReduction   `bson:"by_project" json:"by_project"` // keyed by project id (hex)
	ByScopeType   map[ScopeType]ReductionTotals `bson:"by_scope_type" json:"by_scope_type"`
	ByCategory    map[string]ReductionTotals    `bson:"by_category" json:"by_category"`
	ByLocation    map[string]ReductionTotals    `bson:"by_location" json:"by_location"`
	ByMethodology map[string]ReductionTotals    `bson:"by_methodology" json:"by_methodology"`
}

// ReductionTotals is one numeric leaf of the reduction rollup.
type ReductionTotals struct {
	Planned  float64 `bson:"planned" json:"planned"`   // tonnes CO2e
	Achieved float64 `bson:"achieved" json:"achieved"` // tonnes CO2e
}

// Add returns the element-wise sum of two reduction totals.
func (t ReductionTotals) Add(o ReductionTotals) ReductionTotals {
	return ReductionTotals{Planned: t.Planned + o.Planned, Achieved: t.Achieved + o.Achieved}
}

// ProjectReduction is the per-project leaf, carrying the grouping
// dimensions so restricted views can rebuild every rollup from leaves.
type ProjectReduction struct {
	Name        string          `bson:"name" json:"name"`
	ScopeType   ScopeType       `bson:"scope_type" json:"scope_type"`
	Category    string          `bson:"category" json:"category"`
	Location    string          `bson:"location,omitempty" json:"location,omitempty"`
	Methodology string          `bson:"methodology,omitempty" json:"methodology,omitempty"`
	Totals      ReductionTotals `bson:"totals" json:"totals"`
}
