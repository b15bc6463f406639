// internal/domain/models/client.go
package models

import (
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is a tenant: one company whose sustainability data the platform
// manages. Includes case/diacritic-insensitive fields for search/sort.
//
// Staffing pointers:
//   - ConsultingAdminID is the owning consulting admin (direct assignment).
//   - LeadCreatedBy records who opened the lead; it can point at an admin
//     or a consultant and appears in legacy populated form in old records.
//   - ConsultantIDs are the consultants currently assigned through the
//     workflow.
type Client struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`

	Industry string `bson:"industry,omitempty" json:"industry,omitempty"`
	Country  string `bson:"country,omitempty" json:"country,omitempty"`
	Status   string `bson:"status" json:"status"`

	ConsultingAdminID *primitive.ObjectID  `bson:"consulting_admin_id,omitempty" json:"consulting_admin_id,omitempty"`
	LeadCreatedBy     identity.Ref         `bson:"lead_created_by,omitempty" json:"lead_created_by,omitempty"`
	ConsultantIDs     []primitive.ObjectID `bson:"consultant_ids,omitempty" json:"consultant_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
