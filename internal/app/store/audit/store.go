// internal/app/store/audit/store.go
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/carbonhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Module tags. ModuleAuth is privileged: it covers sign-in and credential
// events and is visible only to roles the policy explicitly grants it to.
// It deliberately has no counterpart in the checklist universe, so no
// checklist can ever reach it.
const (
	ModuleAuth              = "auth"
	ModuleUsers             = "users"
	ModuleOrganization      = "organization"
	ModuleDataEntry         = "data_entry"
	ModuleReports           = "reports"
	ModuleReductionProjects = "reduction_projects"
	ModuleSettings          = "settings"
)

// Modules lists every module tag an event can carry.
var Modules = []string{
	ModuleAuth,
	ModuleUsers,
	ModuleOrganization,
	ModuleDataEntry,
	ModuleReports,
	ModuleReductionProjects,
	ModuleSettings,
}

// Auth actions
const (
	ActionLoginSuccess    = "login_success"
	ActionLoginFailed     = "login_failed"
	ActionLogout          = "logout"
	ActionPasswordChanged = "password_changed"
)

// User administration actions
const (
	ActionUserCreated        = "user_created"
	ActionUserUpdated        = "user_updated"
	ActionUserDisabled       = "user_disabled"
	ActionUserEnabled        = "user_enabled"
	ActionUserDeleted        = "user_deleted"
	ActionChecklistAssigned  = "checklist_assigned"
	ActionConsultantAssigned = "consultant_assigned"
	ActionConsultantRemoved  = "consultant_removed"
)

// Organization chart actions
const (
	ActionClientCreated   = "client_created"
	ActionClientUpdated   = "client_updated"
	ActionClientDeleted   = "client_deleted"
	ActionNodeCreated     = "node_created"
	ActionNodeRemoved     = "node_removed"
	ActionScopeAdded      = "scope_added"
	ActionScopeMembersSet = "scope_members_set"
	ActionScopeRemoved    = "scope_removed"
)

// Data, reporting, and project actions
const (
	ActionEntryCreated     = "entry_created"
	ActionEntryUpdated     = "entry_updated"
	ActionEntryDeleted     = "entry_deleted"
	ActionDocumentUploaded = "document_uploaded"
	ActionReportGenerated  = "report_generated"
	ActionReportExported   = "report_exported"
	ActionProjectCreated   = "project_created"
	ActionProjectUpdated   = "project_updated"
	ActionProjectProgress  = "project_progress"
	ActionSettingsChanged  = "settings_changed"
)

// Event represents one audit trail row.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp time.Time           `bson:"timestamp"`
	ClientID  *primitive.ObjectID `bson:"client_id,omitempty"`

	// OwnerAdminID denormalizes the client's owning consulting admin at
	// write time, so admin-scoped reads stay a single query even after
	// the client is reassigned.
	OwnerAdminID *primitive.ObjectID `bson:"owner_admin_id,omitempty"`

	// Event classification
	Module string `bson:"module"`
	Action string `bson:"action"`

	// Who
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty"`
	ActorRole models.Role         `bson:"actor_role,omitempty"`
	TargetID  *primitive.ObjectID `bson:"target_id,omitempty"` // affected record

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by action)
	Details map[string]string `bson:"details,omitempty"`

	// Soft removal; restorable within the configured window.
	Deleted   bool       `bson:"deleted,omitempty"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty"`
}

// Predicate is a compiled visibility rule for audit reads: which rows the
// caller is allowed to see at all. The access policy builds predicates;
// this store only renders and runs them. A zero Predicate means
// unrestricted (super admin).
type Predicate struct {
	// ClientID, when set, binds every matched row to one tenant.
	ClientID *primitive.ObjectID

	// ActorRoles, when non-empty, restricts rows to events performed by
	// actors holding one of these roles.
	ActorRoles []models.Role

	// AnyClientIDs and AnyActorIDs widen visibility disjunctively: a row
	// matches when it belongs to one of these clients OR was performed
	// by one of these actors.
	AnyClientIDs []primitive.ObjectID
	AnyActorIDs  []primitive.ObjectID

	// ModulesLimited narrows rows to the Modules list. The flag matters
	// when the list is empty: limited-to-nothing matches no rows at all,
	// while an unlimited predicate matches every module.
	ModulesLimited bool
	Modules        []string

	// ExcludeAuth removes the privileged auth module no matter what the
	// rest of the predicate allows.
	ExcludeAuth bool

	// IncludeDeleted widens reads to soft-deleted rows.
	IncludeDeleted bool
}

// Filter renders the predicate as a Mongo filter.
func (p Predicate) Filter() bson.M {
	q := bson.M{}

	if !p.IncludeDeleted {
		q["deleted"] = bson.M{"$ne": true}
	}
	if p.ClientID != nil {
		q["client_id"] = *p.ClientID
	}
	if len(p.ActorRoles) > 0 {
		q["actor_role"] = bson.M{"$in": p.ActorRoles}
	}

	var or []bson.M
	if len(p.AnyClientIDs) > 0 {
		or = append(or, bson.M{"client_id": bson.M{"$in": p.AnyClientIDs}})
	}
	if len(p.AnyActorIDs) > 0 {
		or = append(or, bson.M{"actor_id": bson.M{"$in": p.AnyActorIDs}})
	}
	switch len(or) {
	case 0:
	case 1:
		for k, v := range or[0] {
			q[k] = v
		}
	default:
		q["$or"] = or
	}

	if p.ModulesLimited {
		// Always a real (possibly empty) array: $in over an empty list
		// is the "authorized but sees nothing" case.
		mods := append([]string{}, p.Modules...)
		if p.ExcludeAuth {
			kept := mods[:0]
			for _, m := range mods {
				if m != ModuleAuth {
					kept = append(kept, m)
				}
			}
			mods = kept
		}
		q["module"] = bson.M{"$in": mods}
	} else if p.ExcludeAuth {
		q["module"] = bson.M{"$ne": ModuleAuth}
	}

	return q
}

// QueryFilter narrows a predicate-scoped read to what the caller asked
// for: one module, one action, one actor, a time range, a page. It only
// ever shrinks the result set; the predicate stays in force.
type QueryFilter struct {
	Module    string
	Action    string
	ActorID   *primitive.ObjectID
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) filter() bson.M {
	q := bson.M{}
	if f.Module != "" {
		q["module"] = f.Module
	}
	if f.Action != "" {
		q["action"] = f.Action
	}
	if f.ActorID != nil {
		q["actor_id"] = f.ActorID
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		q["timestamp"] = timeQuery
	}
	return q
}

// Store manages audit trail records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Query by time range (most recent first)
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		// Query by tenant
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by owning admin
		{
			Keys: bson.D{
				{Key: "owner_admin_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by actor
		{
			Keys: bson.D{
				{Key: "actor_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by module
		{
			Keys: bson.D{
				{Key: "module", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Purge scans only the soft-deleted slice
		{
			Keys: bson.D{{Key: "deleted_at", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(
				bson.D{{Key: "deleted", Value: true}}),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// GetByID loads one event, deleted or not.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	var ev Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func combine(p Predicate, f QueryFilter) bson.M {
	scope := p.Filter()
	extra := f.filter()
	if len(extra) == 0 {
		return scope
	}
	// $and keeps the predicate in force even when the request names the
	// same fields.
	return bson.M{"$and": []bson.M{scope, extra}}
}

// Query retrieves the events the predicate allows, narrowed by the filter,
// most recent first.
func (s *Store) Query(ctx context.Context, p Predicate, f QueryFilter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cursor, err := s.c.Find(ctx, combine(p, f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns how many events the predicate allows, narrowed by the filter.
func (s *Store) Count(ctx context.Context, p Predicate, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, combine(p, f))
}

// ErrRestoreWindow is returned when restoring an event whose removal is
// older than the configured window.
var ErrRestoreWindow = errors.New("audit event restore window has elapsed")

// SoftDelete flags an event as removed. The row stays queryable through
// predicates with IncludeDeleted and restorable until the window elapses.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"deleted": true, "deleted_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Restore undoes a soft delete if it happened within the window.
func (s *Store) Restore(ctx context.Context, id primitive.ObjectID, window time.Duration) error {
	cutoff := time.Now().UTC().Add(-window)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": true, "deleted_at": bson.M{"$gte": cutoff}},
		bson.M{"$set": bson.M{"deleted": false}, "$unset": bson.M{"deleted_at": ""}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the event is not in a deleted state at all, or the
		// window has elapsed. Tell those apart for the caller.
		err := s.c.FindOne(ctx, bson.M{"_id": id, "deleted": true}).Err()
		if err == nil {
			return ErrRestoreWindow
		}
		if err == mongo.ErrNoDocuments {
			return mongo.ErrNoDocuments
		}
		return err
	}
	return nil
}

// PurgeDeleted hard-removes soft-deleted events whose restore window has
// elapsed. Returns the number of rows removed. The purge worker calls
// this on an interval.
func (s *Store) PurgeDeleted(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	res, err := s.c.DeleteMany(ctx, bson.M{
		"deleted":    true,
		"deleted_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
