package audit_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"github.com/dalemusser/carbonhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestPredicate_Filter(t *testing.T) {
	clientID := primitive.NewObjectID()
	otherClient := primitive.NewObjectID()
	actorID := primitive.NewObjectID()

	tests := []struct {
		name string
		p    audit.Predicate
		want bson.M
	}{
		{
			name: "unrestricted",
			p:    audit.Predicate{},
			want: bson.M{"deleted": bson.M{"$ne": true}},
		},
		{
			name: "unrestricted including deleted",
			p:    audit.Predicate{IncludeDeleted: true},
			want: bson.M{},
		},
		{
			name: "tenant bound excluding auth",
			p:    audit.Predicate{ClientID: &clientID, ExcludeAuth: true},
			want: bson.M{
				"deleted":   bson.M{"$ne": true},
				"client_id": clientID,
				"module":    bson.M{"$ne": "auth"},
			},
		},
		{
			name: "tenant bound with actor role allow-list",
			p: audit.Predicate{
				ClientID:   &clientID,
				ActorRoles: []models.Role{models.RoleClientAdmin, models.RoleEmployee},
			},
			want: bson.M{
				"deleted":    bson.M{"$ne": true},
				"client_id":  clientID,
				"actor_role": bson.M{"$in": []models.Role{models.RoleClientAdmin, models.RoleEmployee}},
			},
		},
		{
			name: "clients or actors disjunction",
			p: audit.Predicate{
				AnyClientIDs: []primitive.ObjectID{clientID, otherClient},
				AnyActorIDs:  []primitive.ObjectID{actorID},
			},
			want: bson.M{
				"deleted": bson.M{"$ne": true},
				"$or": []bson.M{
					{"client_id": bson.M{"$in": []primitive.ObjectID{clientID, otherClient}}},
					{"actor_id": bson.M{"$in": []primitive.ObjectID{actorID}}},
				},
			},
		},
		{
			name: "single branch folds into the filter",
			p:    audit.Predicate{AnyActorIDs: []primitive.ObjectID{actorID}},
			want: bson.M{
				"deleted":  bson.M{"$ne": true},
				"actor_id": bson.M{"$in": []primitive.ObjectID{actorID}},
			},
		},
		{
			name: "module list",
			p: audit.Predicate{
				ClientID:       &clientID,
				ModulesLimited: true,
				Modules:        []string{"users", "reports"},
			},
			want: bson.M{
				"deleted":   bson.M{"$ne": true},
				"client_id": clientID,
				"module":    bson.M{"$in": []string{"users", "reports"}},
			},
		},
		{
			name: "limited to nothing matches nothing",
			p:    audit.Predicate{ClientID: &clientID, ModulesLimited: true},
			want: bson.M{
				"deleted":   bson.M{"$ne": true},
				"client_id": clientID,
				"module":    bson.M{"$in": []string{}},
			},
		},
		{
			name: "auth stripped from an explicit list",
			p: audit.Predicate{
				ModulesLimited: true,
				Modules:        []string{"users", "auth", "reports"},
				ExcludeAuth:    true,
			},
			want: bson.M{
				"deleted": bson.M{"$ne": true},
				"module":  bson.M{"$in": []string{"users", "reports"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Filter(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestStore_Log_AutoGeneratesIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Module:  audit.ModuleUsers,
		Action:  audit.ActionUserCreated,
		ActorID: &actorID,
		Success: true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.Predicate{}, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be auto-generated")
	}
}

func TestStore_Query_PredicateConfinesTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := primitive.NewObjectID()
	theirs := primitive.NewObjectID()

	for _, ev := range []audit.Event{
		{ClientID: &mine, Module: audit.ModuleUsers, Action: audit.ActionUserCreated, Success: true},
		{ClientID: &mine, Module: audit.ModuleAuth, Action: audit.ActionLoginSuccess, Success: true},
		{ClientID: &theirs, Module: audit.ModuleUsers, Action: audit.ActionUserCreated, Success: true},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	// Tenant-bound, auth excluded: the other tenant's rows and the auth
	// row must both stay invisible.
	p := audit.Predicate{ClientID: &mine, ExcludeAuth: true}

	events, err := store.Query(ctx, p, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Module != audit.ModuleUsers || *events[0].ClientID != mine {
		t.Errorf("leaked event: %+v", events[0])
	}

	// Asking for the auth module explicitly cannot widen the predicate.
	events, err = store.Query(ctx, p, audit.QueryFilter{Module: audit.ModuleAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("request widened the predicate: got %d events", len(events))
	}

	n, err := store.Count(ctx, p, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestStore_Query_ActorRolesHideConsultingSide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clientID := primitive.NewObjectID()
	for _, ev := range []audit.Event{
		{ClientID: &clientID, Module: audit.ModuleUsers, Action: audit.ActionUserCreated,
			ActorRole: models.RoleClientAdmin, Success: true},
		{ClientID: &clientID, Module: audit.ModuleUsers, Action: audit.ActionUserUpdated,
			ActorRole: models.RoleConsultant, Success: true},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	p := audit.Predicate{
		ClientID:   &clientID,
		ActorRoles: []models.Role{models.RoleClientAdmin, models.RoleEmployee},
	}
	events, err := store.Query(ctx, p, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ActorRole != models.RoleClientAdmin {
		t.Errorf("consulting-side actor leaked: %+v", events[0])
	}
}

func TestStore_Query_LimitedToNothingIsEmptyNotError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clientID := primitive.NewObjectID()
	if err := store.Log(ctx, audit.Event{
		ClientID: &clientID, Module: audit.ModuleUsers, Action: audit.ActionUserCreated, Success: true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	// An auditor whose checklist grants no audit modules is authorized
	// but sees zero rows.
	p := audit.Predicate{ClientID: &clientID, ModulesLimited: true}
	events, err := store.Query(ctx, p, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty result, got %d events", len(events))
	}
}

func TestStore_Query_TimeRangeAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-1 * time.Hour)
	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Module:    audit.ModuleReports,
			Action:    audit.ActionReportGenerated,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	start := base.Add(90 * time.Second)
	events, err := store.Query(ctx, audit.Predicate{}, audit.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("time range returned %d events, want 3", len(events))
	}
	// Most recent first.
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("expected descending timestamp order")
	}

	page, err := store.Query(ctx, audit.Predicate{}, audit.QueryFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page returned %d events, want 2", len(page))
	}
}

func TestStore_SoftDeleteAndRestore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Log(ctx, audit.Event{
		Module: audit.ModuleSettings, Action: audit.ActionSettingsChanged, Success: true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	events, err := store.Query(ctx, audit.Predicate{}, audit.QueryFilter{})
	if err != nil || len(events) != 1 {
		t.Fatalf("seed query failed: %v (%d events)", err, len(events))
	}
	id := events[0].ID

	if err := store.SoftDelete(ctx, id); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	// Deleting again is a no-op error.
	if err := store.SoftDelete(ctx, id); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments on double delete, got %v", err)
	}

	// Hidden from normal reads, visible with IncludeDeleted.
	events, err = store.Query(ctx, audit.Predicate{}, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("soft-deleted event still visible")
	}
	events, err = store.Query(ctx, audit.Predicate{IncludeDeleted: true}, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || !events[0].Deleted || events[0].DeletedAt == nil {
		t.Fatalf("deleted event not flagged: %+v", events)
	}

	if err := store.Restore(ctx, id, time.Hour); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Deleted || got.DeletedAt != nil {
		t.Errorf("restore left flags behind: %+v", got)
	}

	// Restoring a live event reports no match.
	if err := store.Restore(ctx, id, time.Hour); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Restore_WindowElapsed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Log(ctx, audit.Event{
		Module: audit.ModuleSettings, Action: audit.ActionSettingsChanged, Success: true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	events, err := store.Query(ctx, audit.Predicate{}, audit.QueryFilter{})
	if err != nil || len(events) != 1 {
		t.Fatalf("seed query failed: %v", err)
	}
	id := events[0].ID

	if err := store.SoftDelete(ctx, id); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	// Backdate the removal beyond the window.
	old := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := db.Collection("audit_events").UpdateByID(ctx, id,
		bson.M{"$set": bson.M{"deleted_at": old}}); err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	if err := store.Restore(ctx, id, 24*time.Hour); err != audit.ErrRestoreWindow {
		t.Errorf("expected ErrRestoreWindow, got %v", err)
	}
}

func TestStore_PurgeDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, audit.Event{
			Module: audit.ModuleUsers, Action: audit.ActionUserUpdated, Success: true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	events, err := store.Query(ctx, audit.Predicate{}, audit.QueryFilter{})
	if err != nil || len(events) != 3 {
		t.Fatalf("seed query failed: %v", err)
	}

	// One live row, one freshly deleted, one deleted long ago.
	if err := store.SoftDelete(ctx, events[0].ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := store.SoftDelete(ctx, events[1].ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	old := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := db.Collection("audit_events").UpdateByID(ctx, events[1].ID,
		bson.M{"$set": bson.M{"deleted_at": old}}); err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	n, err := store.PurgeDeleted(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeDeleted failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}

	remaining, err := store.Query(ctx, audit.Predicate{IncludeDeleted: true}, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("%d rows remain, want 2", len(remaining))
	}
}
