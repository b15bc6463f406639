// internal/domain/models/reductionproject.go
package models

import (
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReductionProject is a client initiative to cut emissions, carrying the
// dimensions the summary rollups group by (scope type, category, location,
// methodology) and the team whose members may see it.
//
// Head and Members tolerate legacy populated shapes; compare by Key.
type ReductionProject struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	ClientID primitive.ObjectID `bson:"client_id" json:"client_id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	Status   string             `bson:"status" json:"status"`

	ScopeType   ScopeType `bson:"scope_type" json:"scope_type"`
	Category    string    `bson:"category" json:"category"`
	Location    string    `bson:"location,omitempty" json:"location,omitempty"`
	Methodology string    `bson:"methodology,omitempty" json:"methodology,omitempty"`

	// Reductions in tonnes CO2e.
	PlannedReduction  float64 `bson:"planned_reduction" json:"planned_reduction"`
	AchievedReduction float64 `bson:"achieved_reduction" json:"achieved_reduction"`

	Head    identity.Ref   `bson:"head,omitempty" json:"head,omitempty"`
	Members []identity.Ref `bson:"members,omitempty" json:"members,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OnTeam reports whether the given identity heads the project or is on its
// member list. Zero keys never match.
func (p ReductionProject) OnTeam(k identity.Key) bool {
	if k.IsZero() {
		return false
	}
	if p.Head.Key() == k {
		return true
	}
	for _, m := range p.Members {
		if m.Key() == k {
			return true
		}
	}
	return false
}
