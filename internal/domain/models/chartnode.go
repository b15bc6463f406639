// internal/domain/models/chartnode.go
package models

import (
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChartKind distinguishes the two structurally identical trees a client
// maintains: the organization chart and the process chart.
type ChartKind string

const (
	ChartOrganization ChartKind = "organization"
	ChartProcess      ChartKind = "process"
)

// ChartKinds is the full set of allowed chart identifiers.
var ChartKinds = []ChartKind{ChartOrganization, ChartProcess}

// Valid reports whether k is one of the defined chart kinds.
func (k ChartKind) Valid() bool {
	return k == ChartOrganization || k == ChartProcess
}

// ChartNode is one unit in a client's organization or process chart.
//
// NOTE:
//   - Head may be stored as a raw ObjectID, a hex string, or a populated
//     user sub-document depending on which writer produced the record;
//     identity.Ref absorbs all three. Compare heads by Key only.
//   - Scope assignments are embedded: a node owns its measurement leaves.
type ChartNode struct {
	ID       primitive.ObjectID  `bson:"_id" json:"id"`
	ClientID primitive.ObjectID  `bson:"client_id" json:"client_id"`
	Chart    ChartKind           `bson:"chart" json:"chart"`
	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"name_ci"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`

	Department string       `bson:"department,omitempty" json:"department,omitempty"`
	Location   string       `bson:"location,omitempty" json:"location,omitempty"`
	Head       identity.Ref `bson:"head,omitempty" json:"head,omitempty"`

	Scopes []ScopeAssignment `bson:"scopes,omitempty" json:"scopes,omitempty"`

	Deleted bool `bson:"deleted,omitempty" json:"deleted,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ScopeAssignment is a leaf measurement unit inside a chart node: what is
// measured (category/activity under a GHG scope) and who reports it.
type ScopeAssignment struct {
	Identifier string    `bson:"identifier" json:"identifier"`
	ScopeType  ScopeType `bson:"scope_type" json:"scope_type"`
	Category   string    `bson:"category" json:"category"`
	// Activity may be empty for assignments that cover a whole category.
	Activity string         `bson:"activity,omitempty" json:"activity,omitempty"`
	Members  []identity.Ref `bson:"members,omitempty" json:"members,omitempty"`
	Deleted  bool           `bson:"deleted,omitempty" json:"deleted,omitempty"`
}

// HasMember reports whether the given identity is on the assignment's
// member list. Zero keys never match.
func (s ScopeAssignment) HasMember(k identity.Key) bool {
	if k.IsZero() {
		return false
	}
	for _, m := range s.Members {
		if m.Key() == k {
			return true
		}
	}
	return false
}
