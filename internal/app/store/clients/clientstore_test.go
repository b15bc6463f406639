package clientstore_test

import (
	"testing"
	"time"

	clientstore "github.com/dalemusser/carbonhub/internal/app/store/clients"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"github.com/dalemusser/carbonhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Client{
		Name:     "École Verte",
		Industry: "Education",
		Country:  "FR",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI != "ecole verte" {
		t.Errorf("NameCI: got %q, want %q", created.NameCI, "ecole verte")
	}
	if created.Status != "active" {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	client := models.Client{Name: "Duplicate Test"}
	if _, err := store.Create(ctx, client); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, client); err != clientstore.ErrDuplicateClient {
		t.Errorf("expected ErrDuplicateClient, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_OwnerAdminID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateConsultingAdmin(ctx, "Owner Admin", "owner@example.com")
	owned := fixtures.CreateOwnedClient(ctx, "Owned GmbH", admin.ID)
	orphan := fixtures.CreateClient(ctx, "Orphan AG")

	got, err := store.OwnerAdminID(ctx, owned.ID)
	if err != nil {
		t.Fatalf("OwnerAdminID failed: %v", err)
	}
	if got == nil || *got != admin.ID {
		t.Errorf("OwnerAdminID = %v, want %v", got, admin.ID)
	}

	got, err = store.OwnerAdminID(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("OwnerAdminID for unowned client failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil owner for unowned client, got %v", *got)
	}

	if _, err := store.OwnerAdminID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments for missing client, got %v", err)
	}
}

func TestStore_ReachableByAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateConsultingAdmin(ctx, "Admin", "admin@example.com")
	consultant := fixtures.CreateConsultant(ctx, "Consultant", "c@example.com", admin.ID)

	// Path 1: direct ownership.
	owned := fixtures.CreateOwnedClient(ctx, "Owned GmbH", admin.ID)

	// Path 2: lead created by the admin, in each historical shape.
	now := time.Now().UTC()
	leadRaw := models.Client{ID: primitive.NewObjectID(), Name: "Lead Raw", NameCI: "lead raw", Status: "active", CreatedAt: now, UpdatedAt: now}
	if _, err := db.Collection("clients").InsertOne(ctx, bson.M{
		"_id": leadRaw.ID, "name": leadRaw.Name, "name_ci": leadRaw.NameCI,
		"status": "active", "lead_created_by": admin.ID,
		"created_at": now, "updated_at": now,
	}); err != nil {
		t.Fatalf("insert raw-shape lead: %v", err)
	}
	leadHex := primitive.NewObjectID()
	if _, err := db.Collection("clients").InsertOne(ctx, bson.M{
		"_id": leadHex, "name": "Lead Hex", "name_ci": "lead hex",
		"status": "active", "lead_created_by": admin.ID.Hex(),
		"created_at": now, "updated_at": now,
	}); err != nil {
		t.Fatalf("insert hex-shape lead: %v", err)
	}
	leadDoc := primitive.NewObjectID()
	if _, err := db.Collection("clients").InsertOne(ctx, bson.M{
		"_id": leadDoc, "name": "Lead Doc", "name_ci": "lead doc",
		"status": "active",
		"lead_created_by": bson.M{
			"_id":       admin.ID,
			"full_name": "Admin",
		},
		"created_at": now, "updated_at": now,
	}); err != nil {
		t.Fatalf("insert doc-shape lead: %v", err)
	}

	// Path 3: served by one of the admin's consultants.
	served := fixtures.CreateClient(ctx, "Served SA")
	if err := store.AssignConsultant(ctx, served.ID, consultant.ID); err != nil {
		t.Fatalf("AssignConsultant failed: %v", err)
	}

	// Unrelated client stays invisible.
	fixtures.CreateClient(ctx, "Unrelated Ltd")

	got, err := store.ReachableByAdmin(ctx, admin.ID, []primitive.ObjectID{consultant.ID})
	if err != nil {
		t.Fatalf("ReachableByAdmin failed: %v", err)
	}

	want := map[primitive.ObjectID]bool{
		owned.ID: true, leadRaw.ID: true, leadHex: true, leadDoc: true, served.ID: true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d clients, want %d", len(got), len(want))
	}
	for _, c := range got {
		if !want[c.ID] {
			t.Errorf("unexpected client %q in reachable set", c.Name)
		}
	}

	// Decoding must absorb all three lead shapes.
	for _, c := range got {
		if c.ID == leadDoc {
			if key := c.LeadCreatedBy.Key(); string(key) != admin.ID.Hex() {
				t.Errorf("populated lead shape decoded to key %q, want %q", key, admin.ID.Hex())
			}
		}
	}

	ids, err := store.IDsReachableByAdmin(ctx, admin.ID, []primitive.ObjectID{consultant.ID})
	if err != nil {
		t.Fatalf("IDsReachableByAdmin failed: %v", err)
	}
	if len(ids) != len(want) {
		t.Errorf("projection variant returned %d ids, want %d", len(ids), len(want))
	}
}

func TestStore_ReachableByAdmin_NoConsultants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateConsultingAdmin(ctx, "Admin", "admin@example.com")
	owned := fixtures.CreateOwnedClient(ctx, "Owned GmbH", admin.ID)
	fixtures.CreateClient(ctx, "Unrelated Ltd")

	got, err := store.ReachableByAdmin(ctx, admin.ID, nil)
	if err != nil {
		t.Fatalf("ReachableByAdmin failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != owned.ID {
		t.Errorf("reachable set = %v, want only the owned client", got)
	}
}

func TestStore_ConsultantAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateConsultingAdmin(ctx, "Admin", "admin@example.com")
	consultant := fixtures.CreateConsultant(ctx, "Consultant", "c@example.com", admin.ID)
	client := fixtures.CreateClient(ctx, "Acme GmbH")

	if err := store.AssignConsultant(ctx, client.ID, consultant.ID); err != nil {
		t.Fatalf("AssignConsultant failed: %v", err)
	}
	// Assigning twice must not duplicate the entry.
	if err := store.AssignConsultant(ctx, client.ID, consultant.ID); err != nil {
		t.Fatalf("second AssignConsultant failed: %v", err)
	}

	got, err := store.GetByID(ctx, client.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.ConsultantIDs) != 1 {
		t.Fatalf("consultant_ids has %d entries, want 1", len(got.ConsultantIDs))
	}

	ids, err := store.IDsAssignedToConsultant(ctx, consultant.ID)
	if err != nil {
		t.Fatalf("IDsAssignedToConsultant failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != client.ID {
		t.Errorf("assigned ids = %v, want [%v]", ids, client.ID)
	}

	if err := store.UnassignConsultant(ctx, client.ID, consultant.ID); err != nil {
		t.Fatalf("UnassignConsultant failed: %v", err)
	}
	ids, err = store.IDsAssignedToConsultant(ctx, consultant.ID)
	if err != nil {
		t.Fatalf("IDsAssignedToConsultant after unassign failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no assignments after unassign, got %v", ids)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := clientstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Client{Name: "Before AG", Country: "DE"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Update(ctx, created.ID, models.Client{Name: "After AG", Industry: "Logistics"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "After AG" || got.NameCI != "after ag" {
		t.Errorf("name not updated: %q / %q", got.Name, got.NameCI)
	}
	if got.Industry != "Logistics" {
		t.Errorf("industry not updated: %q", got.Industry)
	}
	if got.Country != "DE" {
		t.Errorf("unset field overwritten: country = %q", got.Country)
	}
}
