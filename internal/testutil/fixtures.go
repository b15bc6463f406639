package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateClient creates a test client with the given name.
// Returns the created client with its generated ID.
func (f *Fixtures) CreateClient(ctx context.Context, name string) models.Client {
	f.t.Helper()

	now := time.Now().UTC()
	client := models.Client{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Industry:  "Manufacturing",
		Country:   "DE",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("clients").InsertOne(ctx, client)
	if err != nil {
		f.t.Fatalf("failed to create test client: %v", err)
	}

	return client
}

// CreateOwnedClient creates a test client owned by the given consulting admin.
func (f *Fixtures) CreateOwnedClient(ctx context.Context, name string, adminID primitive.ObjectID) models.Client {
	f.t.Helper()

	now := time.Now().UTC()
	client := models.Client{
		ID:                primitive.NewObjectID(),
		Name:              name,
		NameCI:            text.Fold(name),
		Status:            "active",
		ConsultingAdminID: &adminID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := f.db.Collection("clients").InsertOne(ctx, client)
	if err != nil {
		f.t.Fatalf("failed to create test client: %v", err)
	}

	return client
}

// CreateUser creates a test user with the given parameters.
// For client-bound roles, clientID must be provided.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, role models.Role, clientID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		ClientID:   clientID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateSuperAdmin creates a test super admin user.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleSuperAdmin, nil)
}

// CreateConsultingAdmin creates a test consulting admin user.
func (f *Fixtures) CreateConsultingAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleConsultingAdmin, nil)
}

// CreateConsultant creates a test consultant managed by the given admin.
func (f *Fixtures) CreateConsultant(ctx context.Context, fullName, email string, adminID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:                primitive.NewObjectID(),
		FullName:          fullName,
		FullNameCI:        text.Fold(fullName),
		Email:             email,
		Role:              models.RoleConsultant,
		Status:            "active",
		ConsultingAdminID: &adminID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test consultant: %v", err)
	}

	return user
}

// CreateEmployeeHead creates a test team head in the given client.
func (f *Fixtures) CreateEmployeeHead(ctx context.Context, fullName, email string, clientID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleEmployeeHead, &clientID)
}

// CreateEmployee creates a test employee in the given client reporting to
// the given head.
func (f *Fixtures) CreateEmployee(ctx context.Context, fullName, email string, clientID, headID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Email:          email,
		Role:           models.RoleEmployee,
		Status:         "active",
		ClientID:       &clientID,
		EmployeeHeadID: &headID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test employee: %v", err)
	}

	return user
}

// CreateAuditor creates a test auditor in the given client carrying the
// given checklist.
func (f *Fixtures) CreateAuditor(ctx context.Context, fullName, email string, clientID primitive.ObjectID, cl models.Checklist) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       models.RoleAuditor,
		Status:     "active",
		ClientID:   &clientID,
		Checklist:  cl,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test auditor: %v", err)
	}

	return user
}

// CreateChartNode creates a chart node for the given client, headed by
// headID when non-zero.
func (f *Fixtures) CreateChartNode(ctx context.Context, clientID primitive.ObjectID, chart models.ChartKind, name string, headID primitive.ObjectID) models.ChartNode {
	f.t.Helper()

	now := time.Now().UTC()
	node := models.ChartNode{
		ID:        primitive.NewObjectID(),
		ClientID:  clientID,
		Chart:     chart,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !headID.IsZero() {
		node.Head = identity.NewRef(headID)
	}

	_, err := f.db.Collection("chart_nodes").InsertOne(ctx, node)
	if err != nil {
		f.t.Fatalf("failed to create test chart node: %v", err)
	}

	return node
}

// CreateReductionProject creates a reduction project for the given client.
func (f *Fixtures) CreateReductionProject(ctx context.Context, clientID primitive.ObjectID, name string, scopeType models.ScopeType, category string) models.ReductionProject {
	f.t.Helper()

	now := time.Now().UTC()
	proj := models.ReductionProject{
		ID:        primitive.NewObjectID(),
		ClientID:  clientID,
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		ScopeType: scopeType,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("reduction_projects").InsertOne(ctx, proj)
	if err != nil {
		f.t.Fatalf("failed to create test reduction project: %v", err)
	}

	return proj
}
