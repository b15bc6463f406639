package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/system/checklist"
	"github.com/dalemusser/carbonhub/internal/app/system/normalize"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the indexes the lookup paths depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "role", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "consulting_admin_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "employee_head_id", Value: 1}},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotChecklistRole is returned when writing a checklist to an
	// account whose role does not carry one.
	ErrNotChecklistRole = errors.New("checklists apply only to auditor and viewer accounts")

	errBadRole         = errors.New("unknown role")
	errBadStatus       = errors.New(`status must be "active"|"disabled"|"archived"`)
	errClientNeeded    = errors.New("client-bound roles must have client_id")
	errClientForbidden = errors.New("consulting-side roles must not have client_id")
)

// Create inserts a new user after normalizing & validating fields.
//
// Auditor and viewer checklists pass through the sanitizer no matter how
// the caller built them; every other role is stored without one.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	// Normalize core fields
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = status.Active
	}

	if !u.Role.Valid() {
		return models.User{}, errBadRole
	}
	if !status.Valid(u.Status) {
		return models.User{}, errBadStatus
	}

	// Client-bound roles must be scoped to a client; consulting-side
	// roles must not be.
	if u.Role.ClientBound() && u.ClientID == nil {
		return models.User{}, errClientNeeded
	}
	if !u.Role.ClientBound() && u.ClientID != nil {
		return models.User{}, errClientForbidden
	}

	if u.Role.ChecklistGoverned() {
		u.Checklist = checklist.Sanitize(u.Checklist.Raw())
	} else {
		u.Checklist = nil
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetChecklist replaces the checklist on an auditor or viewer account.
// The raw map goes through checklist.Sanitize, so unknown modules,
// sections, and malformed entries are dropped and everything the map does
// not mention stays off. Callers that want to report stray keys to the
// operator run checklist.Validate before calling here.
func (s *Store) SetChecklist(ctx context.Context, id primitive.ObjectID, raw map[string]any) (models.Checklist, error) {
	cl := checklist.Sanitize(raw)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": bson.M{"$in": []models.Role{models.RoleAuditor, models.RoleViewer}}},
		bson.M{"$set": bson.M{"checklist": cl, "updated_at": time.Now().UTC()}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotChecklistRole
	}
	return cl, nil
}

// ApplyChecklistPreset stores a named preset on an auditor or viewer
// account. Unknown preset names fail before any write.
func (s *Store) ApplyChecklistPreset(ctx context.Context, id primitive.ObjectID, preset string) (models.Checklist, error) {
	cl, ok := checklist.Preset(preset)
	if !ok {
		return nil, errors.New("unknown checklist preset: " + preset)
	}
	return s.SetChecklist(ctx, id, cl.Raw())
}

// UpdateStatus sets a user's lifecycle status.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.Valid(st) {
		return errBadStatus
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByClient returns a client's users sorted by folded name, optionally
// narrowed to the given roles.
func (s *Store) ListByClient(ctx context.Context, clientID primitive.ObjectID, roles ...models.Role) ([]models.User, error) {
	q := bson.M{"client_id": clientID}
	if len(roles) > 0 {
		q["role"] = bson.M{"$in": roles}
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ConsultantIDsByAdmin returns the IDs of every consultant managed by the
// given consulting admin.
func (s *Store) ConsultantIDsByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"role": models.RoleConsultant, "consulting_admin_id": adminID},
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

// SubordinateEmployeeIDs returns the IDs of the employees reporting to
// the given team head within one client. The client filter keeps a stale
// employee_head_id pointer from leaking rows across tenants.
func (s *Store) SubordinateEmployeeIDs(ctx context.Context, headID, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"role": models.RoleEmployee, "employee_head_id": headID, "client_id": clientID},
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

// EmployeesByHead returns the employees reporting to the given team head.
func (s *Store) EmployeesByHead(ctx context.Context, headID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"role": models.RoleEmployee, "employee_head_id": headID},
		options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil // found another user with this email
	}
	if err == mongo.ErrNoDocuments {
		return false, nil // no duplicate
	}
	return false, err // actual error
}
