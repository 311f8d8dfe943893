package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"cfanalytics/model"
)

var at = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestTrackHandle(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("new handle is upserted", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}}}},
		))
		created, err := repo.TrackHandle(context.Background(), "tourist", at)
		require.NoError(mt, err)
		assert.True(mt, created)
	})

	mt.Run("existing handle is left alone", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))
		created, err := repo.TrackHandle(context.Background(), "tourist", at)
		require.NoError(mt, err)
		assert.False(mt, created)
	})

	mt.Run("write error surfaces", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad update", Name: "BadValue"}))
		_, err := repo.TrackHandle(context.Background(), "tourist", at)
		assert.Error(mt, err)
	})
}

func TestUntrackHandle(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		removed, err := repo.UntrackHandle(context.Background(), "tourist")
		require.NoError(mt, err)
		assert.True(mt, removed)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		removed, err := repo.UntrackHandle(context.Background(), "ghost")
		require.NoError(mt, err)
		assert.False(mt, removed)
	})
}

func TestListTrackedHandles(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes documents", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		ns := mt.DB.Name() + "." + trackedCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "handle", Value: "petr"}, {Key: "createdAt", Value: at}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "handle", Value: "tourist"}, {Key: "createdAt", Value: at}, {Key: "refreshedAt", Value: at}},
		))
		handles, err := repo.ListTrackedHandles(context.Background())
		require.NoError(mt, err)
		require.Len(mt, handles, 2)
		assert.Equal(mt, "petr", handles[0].Handle)
		assert.Nil(mt, handles[0].RefreshedAt)
		require.NotNil(mt, handles[1].RefreshedAt)
		assert.True(mt, at.Equal(*handles[1].RefreshedAt))
	})

	mt.Run("empty watchlist", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		ns := mt.DB.Name() + "." + trackedCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		handles, err := repo.ListTrackedHandles(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, handles)
		assert.Empty(mt, handles)
	})
}

func TestGetLayout(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no saved layout", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		ns := mt.DB.Name() + "." + layoutCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		layout, err := repo.GetLayout(context.Background(), "tourist")
		require.NoError(mt, err)
		assert.Nil(mt, layout)
	})

	mt.Run("saved layout", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		ns := mt.DB.Name() + "." + layoutCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "handle", Value: "tourist"},
			{Key: "widgets", Value: bson.A{
				bson.D{{Key: "id", Value: "stats"}, {Key: "name", Value: "Statistics"}, {Key: "enabled", Value: true}, {Key: "order", Value: 0}},
			}},
			{Key: "updatedAt", Value: at},
		}))
		layout, err := repo.GetLayout(context.Background(), "tourist")
		require.NoError(mt, err)
		require.NotNil(mt, layout)
		require.Len(mt, layout.Widgets, 1)
		assert.Equal(mt, model.Widget{ID: "stats", Name: "Statistics", Enabled: true}, layout.Widgets[0])
	})
}

func TestStatsHistory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		err := repo.SaveStatsSnapshot(context.Background(), model.StatsSnapshot{
			Handle:     "tourist",
			Stats:      model.DerivedStats{SolvedProblems: 3, MaxRating: 3979},
			ComputedAt: at,
		})
		require.NoError(mt, err)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := newRepository(mt.DB)
		ns := mt.DB.Name() + "." + historyCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "handle", Value: "tourist"},
			{Key: "stats", Value: bson.D{{Key: "solvedProblems", Value: 3}, {Key: "averageAttempts", Value: 1.5}}},
			{Key: "rating", Value: 3800},
			{Key: "streak", Value: 2},
			{Key: "computedAt", Value: at},
		}))
		history, err := repo.ListStatsHistory(context.Background(), "tourist", 0)
		require.NoError(mt, err)
		require.Len(mt, history, 1)
		assert.Equal(mt, 3, history[0].Stats.SolvedProblems)
		assert.Equal(mt, 1.5, history[0].Stats.AverageAttempts)
		assert.Equal(mt, 2, history[0].Streak)
	})
}
