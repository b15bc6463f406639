// internal/domain/models/user.go
package models

import (
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents every account on the platform, consulting side and
// client side alike; Role decides which fields are meaningful.
//
// NOTE:
//   - ClientID is required for client-bound roles (see Role.ClientBound)
//     and absent for consulting-side roles.
//   - ConsultingAdminID is set on consultants: the admin who manages them.
//   - EmployeeHeadID is set on employees: the head of their team node.
//   - Checklist is present only on auditor/viewer accounts; it is written
//     exclusively through the sanitizing store path.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Role       Role               `bson:"role" json:"role"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	ClientID          *primitive.ObjectID `bson:"client_id,omitempty" json:"client_id,omitempty"`
	ConsultingAdminID *primitive.ObjectID `bson:"consulting_admin_id,omitempty" json:"consulting_admin_id,omitempty"`
	EmployeeHeadID    *primitive.ObjectID `bson:"employee_head_id,omitempty" json:"employee_head_id,omitempty"`

	Checklist Checklist `bson:"checklist,omitempty" json:"checklist,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IdentityKey implements identity.Keyer.
func (u *User) IdentityKey() identity.Key {
	if u == nil {
		return identity.Zero
	}
	return identity.Normalize(u.ID)
}

// SameClient reports whether the user belongs to the given client. Users
// without a client (consulting side) belong to none.
func (u *User) SameClient(clientID primitive.ObjectID) bool {
	if u == nil || u.ClientID == nil || clientID.IsZero() {
		return false
	}
	return *u.ClientID == clientID
}
