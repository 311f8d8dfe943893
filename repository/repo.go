package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cfanalytics/model"
)

const (
	trackedCollection = "tracked_handles"
	layoutCollection  = "layouts"
	historyCollection = "stats_history"

	defaultHistoryLimit = 30
)

type Repository struct {
	tracked *mongo.Collection
	layouts *mongo.Collection
	history *mongo.Collection
}

func NewRepository(client *mongo.Client, dbName string) *Repository {
	return newRepository(client.Database(dbName))
}

func newRepository(db *mongo.Database) *Repository {
	return &Repository{
		tracked: db.Collection(trackedCollection),
		layouts: db.Collection(layoutCollection),
		history: db.Collection(historyCollection),
	}
}

// EnsureIndexes creates the unique handle indexes and the history lookup index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "handle", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.tracked.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("tracked_handles index: %w", err)
	}
	if _, err := r.layouts.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("layouts index: %w", err)
	}
	_, err := r.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "handle", Value: 1}, {Key: "computedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("stats_history index: %w", err)
	}
	return nil
}

// TrackHandle adds handle to the watchlist; created is false when it was already tracked.
func (r *Repository) TrackHandle(ctx context.Context, handle string, now time.Time) (created bool, err error) {
	res, err := r.tracked.UpdateOne(ctx,
		bson.M{"handle": handle},
		bson.M{"$setOnInsert": bson.M{"handle": handle, "createdAt": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// UntrackHandle reports whether a watchlist entry was removed.
func (r *Repository) UntrackHandle(ctx context.Context, handle string) (bool, error) {
	res, err := r.tracked.DeleteOne(ctx, bson.M{"handle": handle})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *Repository) ListTrackedHandles(ctx context.Context) ([]model.TrackedHandle, error) {
	cursor, err := r.tracked.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "handle", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	handles := []model.TrackedHandle{}
	if err = cursor.All(ctx, &handles); err != nil {
		return nil, err
	}
	return handles, nil
}

func (r *Repository) MarkRefreshed(ctx context.Context, handle string, at time.Time) error {
	_, err := r.tracked.UpdateOne(ctx, bson.M{"handle": handle}, bson.M{"$set": bson.M{"refreshedAt": at}})
	return err
}

func (r *Repository) SaveLayout(ctx context.Context, layout model.DashboardLayout) error {
	_, err := r.layouts.UpdateOne(ctx,
		bson.M{"handle": layout.Handle},
		bson.M{"$set": bson.M{"widgets": layout.Widgets, "updatedAt": layout.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetLayout returns nil without an error when the handle has no saved layout.
func (r *Repository) GetLayout(ctx context.Context, handle string) (*model.DashboardLayout, error) {
	var layout model.DashboardLayout
	err := r.layouts.FindOne(ctx, bson.M{"handle": handle}).Decode(&layout)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &layout, nil
}

func (r *Repository) SaveStatsSnapshot(ctx context.Context, snapshot model.StatsSnapshot) error {
	_, err := r.history.InsertOne(ctx, snapshot)
	return err
}

// ListStatsHistory returns the newest snapshots first.
func (r *Repository) ListStatsHistory(ctx context.Context, handle string, limit int) ([]model.StatsSnapshot, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "computedAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.history.Find(ctx, bson.M{"handle": handle}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	snapshots := []model.StatsSnapshot{}
	if err = cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
