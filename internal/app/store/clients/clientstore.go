// internal/app/store/clients/clientstore.go
package clientstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/status"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateClient = errors.New("a client with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clients")}
}

// EnsureIndexes creates the indexes the reachability queries depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "consulting_admin_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "consultant_ids", Value: 1}},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Create(ctx context.Context, client models.Client) (models.Client, error) {
	now := time.Now().UTC()
	client.ID = primitive.NewObjectID()
	client.NameCI = text.Fold(client.Name)
	if client.Status == "" {
		client.Status = status.Active
	}
	client.CreatedAt = now
	client.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, client)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Client{}, ErrDuplicateClient
		}
		return models.Client{}, err
	}
	return client, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Client, error) {
	var client models.Client
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err != nil {
		return models.Client{}, err
	}
	return client, nil
}

// GetByIDs loads multiple clients by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var clients []models.Client
	if err := cur.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Update modifies a client's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, client models.Client) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if client.Name != "" {
		set["name"] = client.Name
		set["name_ci"] = text.Fold(client.Name)
	}
	if client.Industry != "" {
		set["industry"] = client.Industry
	}
	if client.Country != "" {
		set["country"] = client.Country
	}
	if client.Status != "" {
		set["status"] = client.Status
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateClient
		}
		return err
	}
	return nil
}

// SetOwner reassigns the owning consulting admin.
func (s *Store) SetOwner(ctx context.Context, id, adminID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"consulting_admin_id": adminID,
		"updated_at":          time.Now().UTC(),
	}})
	return err
}

// OwnerAdminID returns the owning consulting admin for a client, or nil
// when the client has none. The scope cache sits in front of this lookup.
func (s *Store) OwnerAdminID(ctx context.Context, clientID primitive.ObjectID) (*primitive.ObjectID, error) {
	var doc struct {
		ConsultingAdminID *primitive.ObjectID `bson:"consulting_admin_id"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": clientID},
		options.FindOne().SetProjection(bson.M{"consulting_admin_id": 1})).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.ConsultingAdminID, nil
}

// AssignConsultant adds a consultant to the client's assignment list.
func (s *Store) AssignConsultant(ctx context.Context, id, consultantID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"consultant_ids": consultantID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// UnassignConsultant removes a consultant from the client's assignment list.
func (s *Store) UnassignConsultant(ctx context.Context, id, consultantID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"consultant_ids": consultantID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a client by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// reachableByAdmin matches every client a consulting admin can see: the
// ones they own, the ones whose lead they created, and the ones any of
// their consultants is assigned to. The lead pointer appears in three
// historical shapes (raw ObjectID, hex string, populated sub-document),
// so each gets its own branch.
func reachableByAdmin(adminID primitive.ObjectID, consultantIDs []primitive.ObjectID) bson.M {
	or := []bson.M{
		{"consulting_admin_id": adminID},
		{"lead_created_by": adminID},
		{"lead_created_by": adminID.Hex()},
		{"lead_created_by._id": adminID},
	}
	if len(consultantIDs) > 0 {
		or = append(or, bson.M{"consultant_ids": bson.M{"$in": consultantIDs}})
	}
	return bson.M{"$or": or}
}

// ReachableByAdmin returns the clients visible to a consulting admin.
// consultantIDs is the admin's managed consultant set (see the user
// store's ConsultantIDsByAdmin).
func (s *Store) ReachableByAdmin(ctx context.Context, adminID primitive.ObjectID, consultantIDs []primitive.ObjectID) ([]models.Client, error) {
	cur, err := s.c.Find(ctx, reachableByAdmin(adminID, consultantIDs),
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var clients []models.Client
	if err := cur.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// IDsReachableByAdmin is the projection variant of ReachableByAdmin for
// callers that only need the ID set, such as the audit access policy.
func (s *Store) IDsReachableByAdmin(ctx context.Context, adminID primitive.ObjectID, consultantIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, reachableByAdmin(adminID, consultantIDs),
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// IDsAssignedToConsultant returns the IDs of clients the consultant is
// assigned to through the staffing workflow.
func (s *Store) IDsAssignedToConsultant(ctx context.Context, consultantID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"consultant_ids": consultantID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// ExistsByNameCI checks if a client with the given case-insensitive name exists.
func (s *Store) ExistsByNameCI(ctx context.Context, nameCI string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": nameCI}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Find returns clients matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Client, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var clients []models.Client
	if err := cur.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Count returns the number of clients matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
