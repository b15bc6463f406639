package auditpolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/carbonhub/internal/app/policy/auditpolicy"
	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	"github.com/dalemusser/carbonhub/internal/app/system/checklist"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	consultants  []primitive.ObjectID
	subordinates []primitive.ObjectID
	err          error
}

func (f *fakeUsers) ConsultantIDsByAdmin(_ context.Context, _ primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.consultants, f.err
}

func (f *fakeUsers) SubordinateEmployeeIDs(_ context.Context, _, _ primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.subordinates, f.err
}

type fakeClients struct {
	reachable []primitive.ObjectID
	assigned  []primitive.ObjectID
	err       error
}

func (f *fakeClients) IDsReachableByAdmin(_ context.Context, _ primitive.ObjectID, _ []primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.reachable, f.err
}

func (f *fakeClients) IDsAssignedToConsultant(_ context.Context, _ primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.assigned, f.err
}

func newBuilder(users *fakeUsers, clients *fakeClients) *auditpolicy.Builder {
	if users == nil {
		users = &fakeUsers{}
	}
	if clients == nil {
		clients = &fakeClients{}
	}
	return auditpolicy.NewBuilder(users, clients, nil)
}

func auditorWith(clientID primitive.ObjectID, sections ...models.SectionKey) *models.User {
	cl := checklist.Closed()
	grant := cl[models.ModuleAuditTrail]
	grant.Enabled = true
	for _, sec := range sections {
		grant.Sections[sec] = true
	}
	cl[models.ModuleAuditTrail] = grant
	return &models.User{
		ID:        primitive.NewObjectID(),
		Role:      models.RoleAuditor,
		ClientID:  &clientID,
		Checklist: cl,
	}
}

func TestQueryFor_SuperAdmin(t *testing.T) {
	b := newBuilder(nil, nil)
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}

	p, err := b.QueryFor(context.Background(), admin, false)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}
	if p.ClientID != nil || p.ModulesLimited || p.ExcludeAuth || p.IncludeDeleted {
		t.Errorf("super admin predicate should be unrestricted, got %+v", p)
	}

	p, err = b.QueryFor(context.Background(), admin, true)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}
	if !p.IncludeDeleted {
		t.Error("super admin should be able to include deleted rows")
	}
}

func TestQueryFor_ConsultingAdmin(t *testing.T) {
	adminID := primitive.NewObjectID()
	c1, c2 := primitive.NewObjectID(), primitive.NewObjectID()
	cl1, cl2 := primitive.NewObjectID(), primitive.NewObjectID()

	b := newBuilder(
		&fakeUsers{consultants: []primitive.ObjectID{c1, c2}},
		&fakeClients{reachable: []primitive.ObjectID{cl1, cl2}},
	)
	admin := &models.User{ID: adminID, Role: models.RoleConsultingAdmin}

	p, err := b.QueryFor(context.Background(), admin, true)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}

	if len(p.AnyClientIDs) != 2 {
		t.Errorf("client branch = %v, want both reachable clients", p.AnyClientIDs)
	}
	// Actor branch covers the managed consultants and the admin themself.
	if len(p.AnyActorIDs) != 3 {
		t.Fatalf("actor branch = %v, want consultants plus self", p.AnyActorIDs)
	}
	if p.AnyActorIDs[2] != adminID {
		t.Error("admin missing from the actor branch")
	}
	if p.ExcludeAuth {
		t.Error("consulting admins keep auth visibility")
	}
	if p.IncludeDeleted {
		t.Error("includeDeleted must only be honored for super admins")
	}
}

func TestQueryFor_ConsultingAdmin_NoConsultants(t *testing.T) {
	// Tenant reachability does not depend on having a team: an admin who
	// only created leads still sees those clients' rows.
	cl1 := primitive.NewObjectID()
	b := newBuilder(
		&fakeUsers{},
		&fakeClients{reachable: []primitive.ObjectID{cl1}},
	)
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleConsultingAdmin}

	p, err := b.QueryFor(context.Background(), admin, false)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}
	if len(p.AnyClientIDs) != 1 || p.AnyClientIDs[0] != cl1 {
		t.Errorf("client branch = %v, want the lead-created client", p.AnyClientIDs)
	}
	if len(p.AnyActorIDs) != 1 || p.AnyActorIDs[0] != admin.ID {
		t.Errorf("actor branch = %v, want only self", p.AnyActorIDs)
	}
}

func TestQueryFor_ConsultingAdmin_LookupFailure(t *testing.T) {
	boom := errors.New("boom")

	b := newBuilder(&fakeUsers{err: boom}, nil)
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleConsultingAdmin}

	_, err := b.QueryFor(context.Background(), admin, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, auditpolicy.ErrDenied) {
		t.Error("a lookup failure is not a denial")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}

	b = newBuilder(&fakeUsers{}, &fakeClients{err: boom})
	if _, err := b.QueryFor(context.Background(), admin, false); !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestQueryFor_Consultant(t *testing.T) {
	consultantID := primitive.NewObjectID()
	cl1 := primitive.NewObjectID()

	b := newBuilder(nil, &fakeClients{assigned: []primitive.ObjectID{cl1}})
	consultant := &models.User{ID: consultantID, Role: models.RoleConsultant}

	p, err := b.QueryFor(context.Background(), consultant, false)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}
	if len(p.AnyClientIDs) != 1 || p.AnyClientIDs[0] != cl1 {
		t.Errorf("client branch = %v", p.AnyClientIDs)
	}
	if len(p.AnyActorIDs) != 0 {
		t.Errorf("actor branch = %v, want none: assignment is the whole grant", p.AnyActorIDs)
	}
	if p.ExcludeAuth {
		t.Error("consultants keep auth visibility")
	}
}

func TestQueryFor_ClientAdmin(t *testing.T) {
	clientID := primitive.NewObjectID()
	b := newBuilder(nil, nil)

	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleClientAdmin, ClientID: &clientID}
	p, err := b.QueryFor(context.Background(), admin, true)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}
	if p.ClientID == nil || *p.ClientID != clientID {
		t.Errorf("predicate not tenant-bound: %+v", p)
	}
	if !p.ExcludeAuth {
		t.Error("client admin must not see the auth module")
	}
	if p.ModulesLimited {
		t.Error("client admin sees every non-auth module")
	}
	if p.IncludeDeleted {
		t.Error("includeDeleted must only be honored for super admins")
	}

	// Consulting-side activity stays invisible to the tenant it services.
	roles := make(map[models.Role]bool, len(p.ActorRoles))
	for _, r := range p.ActorRoles {
		roles[r] = true
	}
	if len(p.ActorRoles) == 0 {
		t.Fatal("client admin predicate must carry an actor-role allow-list")
	}
	for _, want := range []models.Role{
		models.RoleClientAdmin, models.RoleEmployeeHead, models.RoleEmployee,
		models.RoleAuditor, models.RoleViewer,
	} {
		if !roles[want] {
			t.Errorf("actor allow-list missing %q", want)
		}
	}
	if roles[models.RoleConsultant] || roles[models.RoleConsultingAdmin] || roles[models.RoleSuperAdmin] {
		t.Errorf("actor allow-list leaks consulting-side roles: %v", p.ActorRoles)
	}

	// A client admin without a client binding has nothing to query.
	orphan := &models.User{ID: primitive.NewObjectID(), Role: models.RoleClientAdmin}
	if _, err := b.QueryFor(context.Background(), orphan, false); err != auditpolicy.ErrDenied {
		t.Errorf("expected ErrDenied, got %v", err)
	}
}

func TestQueryFor_EmployeeHead(t *testing.T) {
	clientID := primitive.NewObjectID()
	headID := primitive.NewObjectID()
	e1, e2 := primitive.NewObjectID(), primitive.NewObjectID()

	b := newBuilder(&fakeUsers{subordinates: []primitive.ObjectID{e1, e2}}, nil)
	head := &models.User{ID: headID, Role: models.RoleEmployeeHead, ClientID: &clientID}

	p, err := b.QueryFor(context.Background(), head, true)
	if err != nil {
		t.Fatalf("QueryFor failed: %v", err)
	}
	if p.ClientID == nil || *p.ClientID != clientID {
		t.Errorf("predicate not tenant-bound: %+v", p)
	}
	if len(p.AnyActorIDs) != 3 {
		t.Fatalf("actor branch = %v, want subordinates plus self", p.AnyActorIDs)
	}
	if p.AnyActorIDs[2] != headID {
		t.Error("head missing from the actor branch")
	}
	if !p.ExcludeAuth {
		t.Error("team heads must not see the auth module")
	}
	if p.IncludeDeleted {
		t.Error("includeDeleted must only be honored for super admins")
	}

	t.Run("lookup failure is an error, not a denial", func(t *testing.T) {
		boom := errors.New("boom")
		b := newBuilder(&fakeUsers{err: boom}, nil)
		_, err := b.QueryFor(context.Background(), head, false)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
		if errors.Is(err, auditpolicy.ErrDenied) {
			t.Error("a lookup failure is not a denial")
		}
	})

	t.Run("no client binding denies", func(t *testing.T) {
		orphan := &models.User{ID: primitive.NewObjectID(), Role: models.RoleEmployeeHead}
		if _, err := b.QueryFor(context.Background(), orphan, false); err != auditpolicy.ErrDenied {
			t.Errorf("expected ErrDenied, got %v", err)
		}
	})
}

func TestQueryFor_Auditor(t *testing.T) {
	clientID := primitive.NewObjectID()
	b := newBuilder(nil, nil)

	t.Run("granted sections become the module list", func(t *testing.T) {
		u := auditorWith(clientID, models.SectionAuditList, models.SectionAuditUsers, models.SectionAuditReports)

		p, err := b.QueryFor(context.Background(), u, false)
		if err != nil {
			t.Fatalf("QueryFor failed: %v", err)
		}
		if p.ClientID == nil || *p.ClientID != clientID {
			t.Errorf("predicate not tenant-bound: %+v", p)
		}
		if !p.ModulesLimited {
			t.Error("governed predicate must be module-limited")
		}
		want := []string{audit.ModuleUsers, audit.ModuleReports}
		if len(p.Modules) != len(want) {
			t.Fatalf("modules = %v, want %v", p.Modules, want)
		}
		for i := range want {
			if p.Modules[i] != want[i] {
				t.Errorf("modules[%d] = %q, want %q", i, p.Modules[i], want[i])
			}
		}
	})

	t.Run("list section off denies outright", func(t *testing.T) {
		u := auditorWith(clientID, models.SectionAuditUsers)
		if _, err := b.QueryFor(context.Background(), u, false); err != auditpolicy.ErrDenied {
			t.Errorf("expected ErrDenied, got %v", err)
		}
	})

	t.Run("module disabled denies outright", func(t *testing.T) {
		u := auditorWith(clientID, models.SectionAuditList)
		grant := u.Checklist[models.ModuleAuditTrail]
		grant.Enabled = false
		u.Checklist[models.ModuleAuditTrail] = grant
		if _, err := b.QueryFor(context.Background(), u, false); err != auditpolicy.ErrDenied {
			t.Errorf("expected ErrDenied, got %v", err)
		}
	})

	t.Run("no checklist denies outright", func(t *testing.T) {
		u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleViewer, ClientID: &clientID}
		if _, err := b.QueryFor(context.Background(), u, false); err != auditpolicy.ErrDenied {
			t.Errorf("expected ErrDenied, got %v", err)
		}
	})

	t.Run("list alone is authorized but matches nothing", func(t *testing.T) {
		u := auditorWith(clientID, models.SectionAuditList)

		p, err := b.QueryFor(context.Background(), u, false)
		if err != nil {
			t.Fatalf("an empty grant set is not a denial: %v", err)
		}
		if !p.ModulesLimited || len(p.Modules) != 0 {
			t.Errorf("expected limited-to-nothing predicate, got %+v", p)
		}
	})

	t.Run("full checklist can never reach auth", func(t *testing.T) {
		u := &models.User{
			ID:        primitive.NewObjectID(),
			Role:      models.RoleAuditor,
			ClientID:  &clientID,
			Checklist: checklist.Open(),
		}

		p, err := b.QueryFor(context.Background(), u, false)
		if err != nil {
			t.Fatalf("QueryFor failed: %v", err)
		}
		for _, m := range p.Modules {
			if m == audit.ModuleAuth {
				t.Fatal("auth module leaked into a checklist-derived predicate")
			}
		}
		if !p.ExcludeAuth {
			t.Error("governed predicates carry the auth exclusion")
		}
	})
}

func TestQueryFor_DeniedRoles(t *testing.T) {
	clientID := primitive.NewObjectID()
	b := newBuilder(nil, nil)

	users := []*models.User{
		nil,
		{ID: primitive.NewObjectID(), Role: "superhero"},
		{ID: primitive.NewObjectID(), Role: models.RoleEmployee, ClientID: &clientID},
	}
	for _, u := range users {
		if _, err := b.QueryFor(context.Background(), u, false); err != auditpolicy.ErrDenied {
			t.Errorf("user %+v: expected ErrDenied, got %v", u, err)
		}
	}
}
