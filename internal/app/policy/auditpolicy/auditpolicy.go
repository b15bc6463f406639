// Package auditpolicy decides who may read the audit trail and compiles a
// visibility predicate for those who may.
//
// Authorization rules:
//   - Super admins see every event, soft-deleted rows included on request.
//   - Consulting admins see events of every client they can reach plus
//     events performed by their consultants or themself, the privileged
//     auth module included.
//   - Consultants see events of clients they are currently assigned to,
//     auth included.
//   - Client admins see their own client's events from tenant-side actors
//     only; consulting-side activity and auth stay invisible.
//   - Team heads see their own client's events performed by themself or
//     their subordinate employees; never auth.
//   - Auditors and viewers see their client's events narrowed to the
//     audit-trail modules their checklist grants. The trail's list
//     section must be on, or access is denied outright. A granted list
//     with no module sections is authorized but matches nothing.
//   - Employees and everything else are denied.
//
// Denial and emptiness are different outcomes: ErrDenied means the caller
// must not query at all, while a predicate that matches zero rows is a
// legitimate empty result.
package auditpolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrDenied is returned for callers with no audit trail access at all.
var ErrDenied = errors.New("audit trail access denied")

// UserSource supplies the relationship sets the role hierarchy expands
// through: the consultants a consulting admin manages, and the employees
// reporting to a team head.
type UserSource interface {
	ConsultantIDsByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]primitive.ObjectID, error)
	SubordinateEmployeeIDs(ctx context.Context, headID, clientID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// ClientSource supplies client reachability for the consulting side.
type ClientSource interface {
	IDsReachableByAdmin(ctx context.Context, adminID primitive.ObjectID, consultantIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	IDsAssignedToConsultant(ctx context.Context, consultantID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Builder compiles audit visibility predicates.
type Builder struct {
	Users   UserSource
	Clients ClientSource
	Log     *zap.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(users UserSource, clients ClientSource, logger *zap.Logger) *Builder {
	return &Builder{Users: users, Clients: clients, Log: logger}
}

// sectionModules maps audit-trail checklist sections to the module tags
// they unlock. The auth module is deliberately absent: no checklist
// section exists that could name it, and this table is the only route
// from checklist to module list.
var sectionModules = []struct {
	section models.SectionKey
	module  string
}{
	{models.SectionAuditUsers, audit.ModuleUsers},
	{models.SectionAuditOrganization, audit.ModuleOrganization},
	{models.SectionAuditDataEntry, audit.ModuleDataEntry},
	{models.SectionAuditReports, audit.ModuleReports},
	{models.SectionAuditReductionProjects, audit.ModuleReductionProjects},
	{models.SectionAuditSettings, audit.ModuleSettings},
}

// clientAdminActorRoles is the actor allow-list for client admins. The
// consulting side services many tenants; its activity is not any single
// tenant's business.
var clientAdminActorRoles = []models.Role{
	models.RoleClientAdmin,
	models.RoleEmployeeHead,
	models.RoleEmployee,
	models.RoleAuditor,
	models.RoleViewer,
}

// QueryFor compiles the audit visibility predicate for user.
//
// includeDeleted widens the read to soft-deleted rows and is honored for
// super admins only; everyone else gets live rows regardless.
//
// A store failure while resolving a relationship set comes back as a
// wrapped error, not ErrDenied, so callers can tell "no" from "cannot
// answer right now". Both outcomes block the query.
func (b *Builder) QueryFor(ctx context.Context, user *models.User, includeDeleted bool) (audit.Predicate, error) {
	if user == nil || !user.Role.Valid() {
		return audit.Predicate{}, ErrDenied
	}

	switch user.Role {
	case models.RoleSuperAdmin:
		return audit.Predicate{IncludeDeleted: includeDeleted}, nil

	case models.RoleConsultingAdmin:
		return b.forConsultingAdmin(ctx, user)

	case models.RoleConsultant:
		return b.forConsultant(ctx, user)

	case models.RoleClientAdmin:
		if user.ClientID == nil {
			return audit.Predicate{}, ErrDenied
		}
		return audit.Predicate{
			ClientID:    user.ClientID,
			ActorRoles:  clientAdminActorRoles,
			ExcludeAuth: true,
		}, nil

	case models.RoleEmployeeHead:
		return b.forEmployeeHead(ctx, user)

	case models.RoleAuditor, models.RoleViewer:
		return b.forChecklistGoverned(user)
	}

	// employee
	return audit.Predicate{}, ErrDenied
}

func (b *Builder) forConsultingAdmin(ctx context.Context, user *models.User) (audit.Predicate, error) {
	consultants, err := b.Users.ConsultantIDsByAdmin(ctx, user.ID)
	if err != nil {
		b.logger().Error("audit predicate: consultant set lookup failed",
			zap.String("admin_id", user.ID.Hex()), zap.Error(err))
		return audit.Predicate{}, fmt.Errorf("resolve consultant set: %w", err)
	}
	clients, err := b.Clients.IDsReachableByAdmin(ctx, user.ID, consultants)
	if err != nil {
		b.logger().Error("audit predicate: client reachability lookup failed",
			zap.String("admin_id", user.ID.Hex()), zap.Error(err))
		return audit.Predicate{}, fmt.Errorf("resolve reachable clients: %w", err)
	}

	actors := make([]primitive.ObjectID, 0, len(consultants)+1)
	actors = append(actors, consultants...)
	actors = append(actors, user.ID)

	return audit.Predicate{
		AnyClientIDs: clients,
		AnyActorIDs:  actors,
	}, nil
}

func (b *Builder) forConsultant(ctx context.Context, user *models.User) (audit.Predicate, error) {
	clients, err := b.Clients.IDsAssignedToConsultant(ctx, user.ID)
	if err != nil {
		b.logger().Error("audit predicate: assignment lookup failed",
			zap.String("consultant_id", user.ID.Hex()), zap.Error(err))
		return audit.Predicate{}, fmt.Errorf("resolve assigned clients: %w", err)
	}

	// Assignment is the whole grant. There is no self-actor clause: a
	// consultant rotated off a client loses sight of their past actions
	// there as well.
	return audit.Predicate{
		AnyClientIDs: clients,
	}, nil
}

func (b *Builder) forEmployeeHead(ctx context.Context, user *models.User) (audit.Predicate, error) {
	if user.ClientID == nil {
		return audit.Predicate{}, ErrDenied
	}
	subs, err := b.Users.SubordinateEmployeeIDs(ctx, user.ID, *user.ClientID)
	if err != nil {
		b.logger().Error("audit predicate: subordinate lookup failed",
			zap.String("head_id", user.ID.Hex()), zap.Error(err))
		return audit.Predicate{}, fmt.Errorf("resolve subordinate employees: %w", err)
	}

	actors := make([]primitive.ObjectID, 0, len(subs)+1)
	actors = append(actors, subs...)
	actors = append(actors, user.ID)

	// ClientID stays set alongside the actor clause, so a subordinate's
	// actions on some other tenant never surface here.
	return audit.Predicate{
		ClientID:    user.ClientID,
		AnyActorIDs: actors,
		ExcludeAuth: true,
	}, nil
}

// forChecklistGoverned needs no store access; the checklist on the user
// record is the whole decision.
func (b *Builder) forChecklistGoverned(user *models.User) (audit.Predicate, error) {
	if user.ClientID == nil {
		return audit.Predicate{}, ErrDenied
	}
	grant, ok := user.Checklist[models.ModuleAuditTrail]
	if !ok || !grant.Enabled || !grant.Sections[models.SectionAuditList] {
		return audit.Predicate{}, ErrDenied
	}

	mods := make([]string, 0, len(sectionModules))
	for _, sm := range sectionModules {
		if grant.Sections[sm.section] {
			mods = append(mods, sm.module)
		}
	}

	return audit.Predicate{
		ClientID:       user.ClientID,
		ModulesLimited: true,
		Modules:        mods,
		ExcludeAuth:    true,
	}, nil
}

func (b *Builder) logger() *zap.Logger {
	if b.Log != nil {
		return b.Log
	}
	return zap.NewNop()
}
