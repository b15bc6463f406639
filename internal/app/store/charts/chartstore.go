// internal/app/store/charts/chartstore.go
package chartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"github.com/dalemusser/carbonhub/internal/app/system/normalize"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the organization and process chart trees. Both trees live
// in one collection, discriminated by the chart field.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chart_nodes")}
}

var (
	errBadChart     = errors.New(`chart must be "organization"|"process"`)
	errBadScopeType = errors.New(`scope_type must be "scope_1"|"scope_2"|"scope_3"`)

	// ErrScopeNotFound is returned when a scope update matches no live
	// assignment with the given identifier.
	ErrScopeNotFound = errors.New("no live scope assignment with this identifier")
)

// EnsureIndexes creates the indexes the tree and membership reads depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "chart", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "scopes.identifier", Value: 1}},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// TreeByClient returns the live nodes of one of the client's charts.
// Callers rebuild the hierarchy from ParentID; ordering by folded name
// keeps sibling order stable.
func (s *Store) TreeByClient(ctx context.Context, clientID primitive.ObjectID, kind models.ChartKind) ([]models.ChartNode, error) {
	if !kind.Valid() {
		return nil, errBadChart
	}
	cur, err := s.c.Find(ctx, bson.M{
		"client_id": clientID,
		"chart":     kind,
		"deleted":   bson.M{"$ne": true},
	}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var nodes []models.ChartNode
	if err := cur.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetNode loads a single node by ID, deleted or not.
func (s *Store) GetNode(ctx context.Context, id primitive.ObjectID) (models.ChartNode, error) {
	var node models.ChartNode
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&node); err != nil {
		return models.ChartNode{}, err
	}
	return node, nil
}

// CreateNode inserts a new chart node after normalizing its fields.
func (s *Store) CreateNode(ctx context.Context, node models.ChartNode) (models.ChartNode, error) {
	if !node.Chart.Valid() {
		return models.ChartNode{}, errBadChart
	}
	now := time.Now().UTC()
	node.ID = primitive.NewObjectID()
	node.Name = normalize.Name(node.Name)
	node.NameCI = text.Fold(node.Name)
	node.Department = normalize.Tag(node.Department)
	node.Location = normalize.Tag(node.Location)
	node.Scopes = nil
	node.Deleted = false
	node.CreatedAt = now
	node.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, node); err != nil {
		return models.ChartNode{}, err
	}
	return node, nil
}

// SetHead points the node at its responsible team head.
func (s *Store) SetHead(ctx context.Context, nodeID, headID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, nodeID, bson.M{"$set": bson.M{
		"head":       identity.NewRef(headID),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// AddScope appends a measurement assignment to the node and returns it
// with its generated identifier.
func (s *Store) AddScope(ctx context.Context, nodeID primitive.ObjectID, scope models.ScopeAssignment) (models.ScopeAssignment, error) {
	if !scope.ScopeType.Valid() {
		return models.ScopeAssignment{}, errBadScopeType
	}
	scope.Identifier = fmt.Sprintf("SC-%s", uuid.New().String()[:8])
	scope.Category = normalize.Name(scope.Category)
	scope.Activity = normalize.Name(scope.Activity)
	scope.Deleted = false

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": nodeID, "deleted": bson.M{"$ne": true}},
		bson.M{
			"$push": bson.M{"scopes": scope},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return models.ScopeAssignment{}, err
	}
	if res.MatchedCount == 0 {
		return models.ScopeAssignment{}, mongo.ErrNoDocuments
	}
	return scope, nil
}

// SetScopeMembers replaces the reporter list of one scope assignment.
func (s *Store) SetScopeMembers(ctx context.Context, nodeID primitive.ObjectID, identifier string, memberIDs []primitive.ObjectID) error {
	members := make([]identity.Ref, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, identity.NewRef(id))
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id": nodeID,
			"scopes": bson.M{"$elemMatch": bson.M{
				"identifier": identifier,
				"deleted":    bson.M{"$ne": true},
			}},
		},
		bson.M{
			"$set": bson.M{
				"scopes.$[sc].members": members,
				"updated_at":           time.Now().UTC(),
			},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"sc.identifier": identifier}},
		}))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrScopeNotFound
	}
	return nil
}

// RemoveScope soft-deletes one scope assignment, keeping the record for
// historical rollups.
func (s *Store) RemoveScope(ctx context.Context, nodeID primitive.ObjectID, identifier string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": nodeID, "scopes.identifier": identifier},
		bson.M{
			"$set": bson.M{
				"scopes.$.deleted": true,
				"updated_at":       time.Now().UTC(),
			},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrScopeNotFound
	}
	return nil
}

// RemoveNode soft-deletes a node. Its scope assignments disappear with it
// because every tree read filters on the node's deleted flag.
func (s *Store) RemoveNode(ctx context.Context, nodeID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, nodeID, bson.M{"$set": bson.M{
		"deleted":    true,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// NodesHeadedBy returns the live nodes of either chart whose head matches
// the given user, in any of the historical head shapes.
func (s *Store) NodesHeadedBy(ctx context.Context, clientID, headID primitive.ObjectID) ([]models.ChartNode, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"client_id": clientID,
		"deleted":   bson.M{"$ne": true},
		"$or": []bson.M{
			{"head": headID},
			{"head": headID.Hex()},
			{"head._id": headID},
		},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var nodes []models.ChartNode
	if err := cur.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}
