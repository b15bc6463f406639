// internal/app/store/reductionprojects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/identity"
	"github.com/dalemusser/carbonhub/internal/app/system/normalize"
	"github.com/dalemusser/carbonhub/internal/app/system/status"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reduction_projects")}
}

var errBadScopeType = errors.New(`scope_type must be "scope_1"|"scope_2"|"scope_3"`)

// EnsureIndexes creates the index the per-client listing depends on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "client_id", Value: 1},
			{Key: "name_ci", Value: 1},
		},
	})
	return err
}

// Create inserts a new reduction project after normalizing its fields.
func (s *Store) Create(ctx context.Context, p models.ReductionProject) (models.ReductionProject, error) {
	if !p.ScopeType.Valid() {
		return models.ReductionProject{}, errBadScopeType
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Name = normalize.Name(p.Name)
	p.NameCI = text.Fold(p.Name)
	p.Category = normalize.Name(p.Category)
	p.Location = normalize.Tag(p.Location)
	p.Methodology = normalize.Name(p.Methodology)
	if p.Status == "" {
		p.Status = status.Active
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.ReductionProject{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ReductionProject, error) {
	var p models.ReductionProject
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.ReductionProject{}, err
	}
	return p, nil
}

// ListByClient returns every project of the client, archived ones included.
// The access policy decides per user which of them are visible.
func (s *Store) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.ReductionProject, error) {
	cur, err := s.c.Find(ctx, bson.M{"client_id": clientID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.ReductionProject
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SetTeam replaces the project's head and member list.
func (s *Store) SetTeam(ctx context.Context, id primitive.ObjectID, headID primitive.ObjectID, memberIDs []primitive.ObjectID) error {
	members := make([]identity.Ref, 0, len(memberIDs))
	for _, m := range memberIDs {
		members = append(members, identity.NewRef(m))
	}
	set := bson.M{
		"members":    members,
		"updated_at": time.Now().UTC(),
	}
	if !headID.IsZero() {
		set["head"] = identity.NewRef(headID)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RecordProgress updates the achieved reduction figure.
func (s *Store) RecordProgress(ctx context.Context, id primitive.ObjectID, achieved float64) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"achieved_reduction": achieved,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateStatus sets a project's lifecycle status.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.Valid(st) {
		return errors.New(`status must be "active"|"disabled"|"archived"`)
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes a project by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
