package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"

	"cfanalytics/cache"
	"cfanalytics/model"
)

const maxBoardSize = 100

// TrackHandle adds a handle to the refresh watchlist after checking it exists upstream.
// created is false when the handle was already tracked.
func (s *AnalyticsService) TrackHandle(ctx context.Context, handle string) (created bool, err error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting TrackHandle", map[string]any{
		"method": "TrackHandle",
		"handle": handle,
	}, "SERVICE", nil)

	handle, err = s.validHandle(traceID, "TrackHandle", handle)
	if err != nil {
		return false, err
	}
	snap, err := s.loadSnapshot(ctx, traceID, "TrackHandle", handle)
	if err != nil {
		return false, err
	}

	key := cache.CanonicalHandle(handle)
	created, err = s.store.TrackHandle(ctx, key, s.now().UTC())
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to track handle", map[string]any{
			"method":    "TrackHandle",
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return false, s.createGrpcError(codes.Internal, "failed to track handle", "DB_ERROR", err)
	}
	if err := s.board.Update(ctx, key, snap.UserInfo.Rating); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to update rating board", map[string]any{
			"method":    "TrackHandle",
			"handle":    handle,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "TrackHandle completed", map[string]any{
		"method":  "TrackHandle",
		"handle":  handle,
		"created": created,
	}, "SERVICE", nil)
	return created, nil
}

func (s *AnalyticsService) UntrackHandle(ctx context.Context, handle string) error {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting UntrackHandle", map[string]any{
		"method": "UntrackHandle",
		"handle": handle,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "UntrackHandle", handle)
	if err != nil {
		return err
	}
	key := cache.CanonicalHandle(handle)
	removed, err := s.store.UntrackHandle(ctx, key)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to untrack handle", map[string]any{
			"method":    "UntrackHandle",
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return s.createGrpcError(codes.Internal, "failed to untrack handle", "DB_ERROR", err)
	}
	if !removed {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Handle is not tracked", map[string]any{
			"method":    "UntrackHandle",
			"handle":    handle,
			"errorType": "NOT_FOUND",
		}, "SERVICE", nil)
		return s.createGrpcError(codes.NotFound, fmt.Sprintf("%s is not tracked", handle), "NOT_FOUND", nil)
	}
	if err := s.board.Remove(ctx, key); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to remove handle from rating board", map[string]any{
			"method":    "UntrackHandle",
			"handle":    handle,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "UntrackHandle completed", map[string]any{
		"method": "UntrackHandle",
		"handle": handle,
	}, "SERVICE", nil)
	return nil
}

func (s *AnalyticsService) ListTracked(ctx context.Context) ([]model.TrackedHandle, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting ListTracked", map[string]any{
		"method": "ListTracked",
	}, "SERVICE", nil)

	handles, err := s.store.ListTrackedHandles(ctx)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list tracked handles", map[string]any{
			"method":    "ListTracked",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "failed to list tracked handles", "DB_ERROR", err)
	}
	return handles, nil
}

// TopTracked ranks tracked handles by their rating at the last refresh.
func (s *AnalyticsService) TopTracked(ctx context.Context, k int) ([]model.BoardEntry, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting TopTracked", map[string]any{
		"method": "TopTracked",
		"k":      k,
	}, "SERVICE", nil)

	if k <= 0 || k > maxBoardSize {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Board size out of range", map[string]any{
			"method":    "TopTracked",
			"k":         k,
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", nil)
		return nil, s.createGrpcError(codes.InvalidArgument, fmt.Sprintf("k must be between 1 and %d", maxBoardSize), "VALIDATION_ERROR", nil)
	}
	entries, err := s.board.Top(ctx, k)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to read rating board", map[string]any{
			"method":    "TopTracked",
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Unavailable, "failed to read rating board", "CACHE_ERROR", err)
	}
	return entries, nil
}
