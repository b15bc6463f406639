// internal/app/store/summaries/summarystore.go
package summarystore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/carbonhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds precomputed emission rollups, one document per client and
// reporting period. Documents are written whole by the rollup job and
// read whole by the reporting surface, which filters them per user.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("summaries")}
}

// EnsureIndexes creates the unique (client, period) index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "client_id", Value: 1},
			{Key: "period", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Upsert replaces the rollup for the summary's client and period, creating
// it on first write. GeneratedAt is stamped here.
func (s *Store) Upsert(ctx context.Context, sum models.Summary) (models.Summary, error) {
	sum.GeneratedAt = time.Now().UTC()

	// Reuse the stored ID: _id is immutable in a replace, and regeneration
	// must not change the summary's identity anyway.
	var existing struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.c.FindOne(ctx,
		bson.M{"client_id": sum.ClientID, "period": sum.Period},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&existing)
	switch {
	case err == nil:
		sum.ID = existing.ID
	case err == mongo.ErrNoDocuments:
		if sum.ID.IsZero() {
			sum.ID = primitive.NewObjectID()
		}
	default:
		return models.Summary{}, err
	}

	if _, err := s.c.ReplaceOne(ctx,
		bson.M{"client_id": sum.ClientID, "period": sum.Period},
		sum,
		options.Replace().SetUpsert(true)); err != nil {
		return models.Summary{}, err
	}
	return sum, nil
}

// GetByClientPeriod loads the rollup for one client and period. Returns
// mongo.ErrNoDocuments when no rollup has been generated yet.
func (s *Store) GetByClientPeriod(ctx context.Context, clientID primitive.ObjectID, period string) (*models.Summary, error) {
	var sum models.Summary
	if err := s.c.FindOne(ctx, bson.M{"client_id": clientID, "period": period}).Decode(&sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Periods returns the reporting periods a client has rollups for, newest
// first by string order.
func (s *Store) Periods(ctx context.Context, clientID primitive.ObjectID) ([]string, error) {
	raw, err := s.c.Distinct(ctx, "period", bson.M{"client_id": clientID})
	if err != nil {
		return nil, err
	}
	periods := make([]string, 0, len(raw))
	for _, v := range raw {
		if p, ok := v.(string); ok {
			periods = append(periods, p)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods, nil
}

// Delete removes the rollup for one client and period.
func (s *Store) Delete(ctx context.Context, clientID primitive.ObjectID, period string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"client_id": clientID, "period": period})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
