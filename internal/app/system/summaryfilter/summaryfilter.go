// Package summaryfilter reduces a client's aggregated emissions summary
// to the slice an access context allows, keeping every retained rollup
// internally consistent.
//
// Filtering rules:
//   - a full-access context returns the input summary untouched
//   - a head context keeps whole node leaves and rebuilds totals, the
//     scope-type rollup, and department/location groupings from them; the
//     category/activity tree cannot be rebuilt from node leaves and comes
//     back empty
//   - an employee context keeps granted category/activity leaves and
//     rebuilds totals and the scope-type rollup from them; node,
//     department, and location groupings come back empty
//   - reduction projects are kept by team membership, with every rollup
//     re-summed from the kept leaves
//   - a context that grants nothing yields the fully-shaped zeroed shell,
//     which is a valid response, distinct from "no summary upstream"
//
// The invariant on every output: a populated rollup equals the sum of the
// retained leaves it was rebuilt from, and no rollup is populated unless
// it could be rebuilt from retained leaves alone.
package summaryfilter

import (
	"github.com/dalemusser/carbonhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/carbonhub/internal/domain/models"
)

// Apply filters s through the access context. The input is treated as
// immutable: restricted paths build a fresh summary and share no maps
// with s. A nil summary stays nil.
func Apply(s *models.Summary, acx accesspolicy.AccessContext) *models.Summary {
	if s == nil {
		return nil
	}
	if acx.FullAccess {
		return s
	}

	out := emptyShell(s)
	switch acx.Role {
	case models.RoleEmployeeHead:
		applyNodeView(out, s, acx)
	case models.RoleEmployee:
		applyScopeView(out, s, acx)
	}
	applyReductions(out, s, acx)
	return out
}

// emptyShell carries over the summary's identity and presents every
// rollup present but empty.
func emptyShell(s *models.Summary) *models.Summary {
	return &models.Summary{
		ID:           s.ID,
		ClientID:     s.ClientID,
		Period:       s.Period,
		ByScopeType:  map[models.ScopeType]models.EmissionTotals{},
		ByNode:       map[string]models.NodeSummary{},
		ByCategory:   map[string]models.CategorySummary{},
		ByScopeID:    map[string]models.EmissionTotals{},
		ByDepartment: map[string]models.EmissionTotals{},
		ByLocation:   map[string]models.EmissionTotals{},
		Reductions: models.ReductionSummary{
			ByProject:     map[string]models.ProjectReduction{},
			ByScopeType:   map[models.ScopeType]models.ReductionTotals{},
			ByCategory:    map[string]models.ReductionTotals{},
			ByLocation:    map[string]models.ReductionTotals{},
			ByMethodology: map[string]models.ReductionTotals{},
		},
		GeneratedAt: s.GeneratedAt,
	}
}

// applyNodeView keeps whole node leaves. Department and location are read
// directly off each retained leaf, so those groupings can be rebuilt; the
// category tree cannot and stays empty.
func applyNodeView(out, src *models.Summary, acx accesspolicy.AccessContext) {
	for id, node := range src.ByNode {
		if !acx.AllowsNode(id) {
			continue
		}
		kept := node
		kept.ByScopeType = copyEmissions(node.ByScopeType)
		out.ByNode[id] = kept

		out.Totals = out.Totals.Add(node.Totals)
		for st, t := range node.ByScopeType {
			out.ByScopeType[st] = out.ByScopeType[st].Add(t)
		}
		if node.Department != "" {
			out.ByDepartment[node.Department] = out.ByDepartment[node.Department].Add(node.Totals)
		}
		if node.Location != "" {
			out.ByLocation[node.Location] = out.ByLocation[node.Location].Add(node.Totals)
		}
	}
	filterScopeIDs(out, src, acx)
}

// applyScopeView keeps granted category/activity leaves. Each category's
// totals are re-summed from its retained activities, and the scope-type
// rollup from the tag each category carries; node-keyed groupings cannot
// be rebuilt at this grain and stay empty.
func applyScopeView(out, src *models.Summary, acx accesspolicy.AccessContext) {
	for cat, catSum := range src.ByCategory {
		var kept *models.CategorySummary
		for act, t := range catSum.ByActivity {
			if !acx.AllowsCategoryActivity(cat, act) {
				continue
			}
			if kept == nil {
				kept = &models.CategorySummary{
					ScopeType:  catSum.ScopeType,
					ByActivity: map[string]models.EmissionTotals{},
				}
			}
			kept.ByActivity[act] = t
			kept.Totals = kept.Totals.Add(t)
		}
		if kept == nil {
			continue
		}
		out.ByCategory[cat] = *kept
		out.Totals = out.Totals.Add(kept.Totals)
		out.ByScopeType[catSum.ScopeType] = out.ByScopeType[catSum.ScopeType].Add(kept.Totals)
	}
	filterScopeIDs(out, src, acx)
}

// applyReductions keeps projects by membership and re-sums the reduction
// totals and every grouping dimension from the kept leaves.
func applyReductions(out, src *models.Summary, acx accesspolicy.AccessContext) {
	for id, p := range src.Reductions.ByProject {
		if !acx.AllowsProject(id) {
			continue
		}
		out.Reductions.ByProject[id] = p

		out.Reductions.Totals = out.Reductions.Totals.Add(p.Totals)
		out.Reductions.ByScopeType[p.ScopeType] = out.Reductions.ByScopeType[p.ScopeType].Add(p.Totals)
		if p.Category != "" {
			out.Reductions.ByCategory[p.Category] = out.Reductions.ByCategory[p.Category].Add(p.Totals)
		}
		if p.Location != "" {
			out.Reductions.ByLocation[p.Location] = out.Reductions.ByLocation[p.Location].Add(p.Totals)
		}
		if p.Methodology != "" {
			out.Reductions.ByMethodology[p.Methodology] = out.Reductions.ByMethodology[p.Methodology].Add(p.Totals)
		}
	}
}

// filterScopeIDs keeps the scope-identifier leaves the context grants
// explicitly. These are leaves, not a rollup, so membership filtering is
// safe on both restricted paths.
func filterScopeIDs(out, src *models.Summary, acx accesspolicy.AccessContext) {
	for id, t := range src.ByScopeID {
		if acx.AllowsScope(id) {
			out.ByScopeID[id] = t
		}
	}
}

func copyEmissions(m map[models.ScopeType]models.EmissionTotals) map[models.ScopeType]models.EmissionTotals {
	out := make(map[models.ScopeType]models.EmissionTotals, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
