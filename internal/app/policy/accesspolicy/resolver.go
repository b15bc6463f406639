// internal/app/policy/accesspolicy/resolver.go
package accesspolicy

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChartSource supplies a client's chart trees.
type ChartSource interface {
	TreeByClient(ctx context.Context, clientID primitive.ObjectID, kind models.ChartKind) ([]models.ChartNode, error)
}

// ProjectSource supplies a client's reduction projects.
type ProjectSource interface {
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.ReductionProject, error)
}

// Resolver computes access contexts from the chart and reduction-project
// stores.
type Resolver struct {
	Charts   ChartSource
	Projects ProjectSource
	Log      *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(charts ChartSource, projects ProjectSource, logger *zap.Logger) *Resolver {
	return &Resolver{Charts: charts, Projects: projects, Log: logger}
}

// Resolve computes the access context for user against clientID.
//
// Resolve never returns an error: any collaborator failure yields the
// empty context and is logged for operability. A resolved context with no
// grants is a valid outcome (the user simply sees nothing), not a failure.
func (r *Resolver) Resolve(ctx context.Context, user *models.User, clientID primitive.ObjectID) AccessContext {
	if user == nil || !user.Role.Valid() {
		r.logger().Warn("access context requested for unusable user")
		return EmptyContext("")
	}
	if user.Role.FullSummaryAccess() {
		return FullContext(user.Role)
	}

	// client_employee_head or employee from here on. The three collaborator
	// reads are independent; issue them together and fail as a unit.
	var (
		wg        sync.WaitGroup
		orgNodes  []models.ChartNode
		procNodes []models.ChartNode
		projects  []models.ReductionProject

		orgErr, procErr, projErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		orgNodes, orgErr = r.Charts.TreeByClient(ctx, clientID, models.ChartOrganization)
	}()
	go func() {
		defer wg.Done()
		procNodes, procErr = r.Charts.TreeByClient(ctx, clientID, models.ChartProcess)
	}()
	go func() {
		defer wg.Done()
		projects, projErr = r.Projects.ListByClient(ctx, clientID)
	}()
	wg.Wait()

	if err := errors.Join(orgErr, procErr, projErr); err != nil {
		r.logger().Error("access context resolution failed, resolving to no access",
			zap.String("user_id", user.ID.Hex()),
			zap.String("client_id", clientID.Hex()),
			zap.String("role", string(user.Role)),
			zap.Error(err))
		return EmptyContext(user.Role)
	}

	acx := EmptyContext(user.Role)
	key := user.IdentityKey()
	nodes := make([]models.ChartNode, 0, len(orgNodes)+len(procNodes))
	nodes = append(nodes, orgNodes...)
	nodes = append(nodes, procNodes...)

	switch user.Role {
	case models.RoleEmployeeHead:
		resolveHead(&acx, key, nodes)
	case models.RoleEmployee:
		resolveEmployee(&acx, key, nodes)
	}
	resolveProjects(&acx, key, projects)
	return acx
}

// resolveHead grants a head their nodes from either chart plus every live
// scope identifier on those nodes. The head match is on the node itself;
// scope member lists are not consulted.
func resolveHead(acx *AccessContext, key identity.Key, nodes []models.ChartNode) {
	if key.IsZero() {
		return
	}
	for _, n := range nodes {
		if n.Deleted || n.Head.Key() != key {
			continue
		}
		acx.NodeIDs[n.ID.Hex()] = struct{}{}
		for _, sc := range n.Scopes {
			if sc.Deleted || sc.Identifier == "" {
				continue
			}
			acx.ScopeIDs[sc.Identifier] = struct{}{}
		}
	}
}

// resolveEmployee grants an employee the scope assignments that list them:
// the identifier plus the category/activity key. Node-level access is
// never granted here.
func resolveEmployee(acx *AccessContext, key identity.Key, nodes []models.ChartNode) {
	for _, n := range nodes {
		if n.Deleted {
			continue
		}
		for _, sc := range n.Scopes {
			if sc.Deleted || !sc.HasMember(key) {
				continue
			}
			if sc.Identifier != "" {
				acx.ScopeIDs[sc.Identifier] = struct{}{}
			}
			if sc.Category != "" {
				acx.CategoryActivityKeys[CategoryActivityKey(sc.Category, sc.Activity)] = struct{}{}
			}
		}
	}
}

func resolveProjects(acx *AccessContext, key identity.Key, projects []models.ReductionProject) {
	for _, p := range projects {
		if p.OnTeam(key) {
			acx.ReductionProjectIDs[p.ID.Hex()] = struct{}{}
		}
	}
}

func (r *Resolver) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
