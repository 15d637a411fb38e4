package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ayush/user-auth-service/internal/models"
)

const usersNS = "test.users"

func userDoc(id int64, name string, active bool, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: name},
		{Key: "email", Value: name + "@example.com"},
		{Key: "password_hash", Value: "hash-" + name},
		{Key: "created_at", Value: created},
		{Key: "is_active", Value: active},
	}
}

func counterResponse(seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{
		Key:   "value",
		Value: bson.D{{Key: "_id", Value: "users"}, {Key: "seq", Value: seq}},
	})
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("find by username", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, userDoc(7, "alice", true, created)))

		got, err := s.FindByUsername(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), got.ID)
		assert.Equal(mt, "alice@example.com", got.Email)
		assert.Equal(mt, "hash-alice", got.PasswordHash)
		assert.True(mt, got.IsActive)
		assert.True(mt, created.Equal(got.CreatedAt))
	})

	mt.Run("find by email not found", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch))

		_, err := s.FindByEmail(context.Background(), "ghost@example.com")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("exists", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: int64(1)}}),
			mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch),
		)

		ok, err := s.ExistsByUsername(context.Background(), "alice")
		require.NoError(mt, err)
		assert.True(mt, ok)

		ok, err = s.ExistsByEmail(context.Background(), "ghost@example.com")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("insert assigns counter id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(counterResponse(3), mtest.CreateSuccessResponse())

		in := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: created, IsActive: true}
		got, err := s.Save(context.Background(), in)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), got.ID)
		assert.Zero(mt, in.ID)
	})

	mt.Run("insert duplicate email", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(counterResponse(4), mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: test.users index: email_1 dup key: { email: "alice@example.com" }`,
		}))

		_, err := s.Save(context.Background(), &models.User{Username: "alice2", Email: "alice@example.com"})
		assert.ErrorIs(mt, err, ErrEmailTaken)
	})

	mt.Run("insert duplicate username", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(counterResponse(5), mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: test.users index: username_1 dup key: { username: "alice" }`,
		}))

		_, err := s.Save(context.Background(), &models.User{Username: "alice", Email: "new@example.com"})
		assert.ErrorIs(mt, err, ErrUsernameTaken)
	})

	mt.Run("update", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		got, err := s.Save(context.Background(), &models.User{ID: 7, Username: "alice", IsActive: false})
		require.NoError(mt, err)
		assert.False(mt, got.IsActive)
	})

	mt.Run("update missing user", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		_, err := s.Save(context.Background(), &models.User{ID: 99})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find all", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch,
			userDoc(1, "alice", false, created),
			userDoc(2, "bob", true, created),
		))

		users, err := s.FindAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "alice", users[0].Username)
		assert.Equal(mt, "bob", users[1].Username)
	})

	mt.Run("find all empty", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch))

		users, err := s.FindAll(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, users)
		assert.Empty(mt, users)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, s.EnsureIndexes(context.Background()))
	})
}
