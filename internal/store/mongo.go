package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/user-auth-service/internal/models"
)

const (
	usernameIndex = "username_1"
	emailIndex    = "email_1"

	usersCounter = "users"
)

// MongoStore handles user persistence in MongoDB. Numeric ids come from a
// counters collection so that users keep the same shape as in PostgreSQL.
type MongoStore struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:    db.Collection("users"),
		counters: db.Collection("counters"),
	}
}

// OpenMongo connects to uri and returns the named database together with a
// disconnect func.
func OpenMongo(ctx context.Context, uri, database string) (*mongo.Database, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client.Database(database), client.Disconnect, nil
}

// EnsureIndexes creates the unique indexes that back username and email
// uniqueness.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameIndex),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, bson.M{"username": username})
}

func (s *MongoStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, bson.M{"email": email})
}

// Save inserts u when u.ID is zero and otherwise updates its mutable fields.
func (s *MongoStore) Save(ctx context.Context, u *models.User) (*models.User, error) {
	out := *u

	if u.ID == 0 {
		id, err := s.nextID(ctx)
		if err != nil {
			return nil, err
		}
		out.ID = id

		if _, err := s.users.InsertOne(ctx, &out); err != nil {
			if taken := duplicateKeyError(err); taken != nil {
				return nil, taken
			}
			return nil, fmt.Errorf("mongo insert: %w", err)
		}
		return &out, nil
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"password_hash": u.PasswordHash, "is_active": u.IsActive}},
	)
	if err != nil {
		return nil, fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &out, nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	users := make([]models.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return users, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.users.Database().Client().Ping(ctx, nil)
}

func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": usersCounter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongo next id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) exists(ctx context.Context, filter bson.M) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := s.users.FindOne(ctx, filter, opts).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("mongo find: %w", err)
	}
	return true, nil
}

// duplicateKeyError maps an E11000 error to the taken-field sentinel using
// the name of the violated index.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, usernameIndex):
		return ErrUsernameTaken
	case strings.Contains(msg, emailIndex):
		return ErrEmailTaken
	}
	return nil
}
