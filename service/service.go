package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cfanalytics/aggregator"
	"cfanalytics/cache"
	"cfanalytics/codeforces"
	"cfanalytics/logger"
	"cfanalytics/model"
)

// Fetcher is the read side of the Codeforces API.
type Fetcher interface {
	GetUserInfo(ctx context.Context, handle string) (model.UserInfo, error)
	GetUserSubmissions(ctx context.Context, handle string) ([]model.Submission, error)
	GetUserRating(ctx context.Context, handle string) ([]model.Contest, error)
	FetchSnapshot(ctx context.Context, handle string) (model.Snapshot, error)
}

type Store interface {
	TrackHandle(ctx context.Context, handle string, now time.Time) (bool, error)
	UntrackHandle(ctx context.Context, handle string) (bool, error)
	ListTrackedHandles(ctx context.Context) ([]model.TrackedHandle, error)
	MarkRefreshed(ctx context.Context, handle string, at time.Time) error
	SaveLayout(ctx context.Context, layout model.DashboardLayout) error
	GetLayout(ctx context.Context, handle string) (*model.DashboardLayout, error)
	SaveStatsSnapshot(ctx context.Context, snapshot model.StatsSnapshot) error
	ListStatsHistory(ctx context.Context, handle string, limit int) ([]model.StatsSnapshot, error)
}

type Publisher interface {
	PublishJSON(subject string, v any) error
}

// AnalyticsService serves dashboards derived from public Codeforces data.
type AnalyticsService struct {
	fetcher   Fetcher
	store     Store
	cache     cache.Cache
	board     cache.Board
	publisher Publisher
	logger    *logger.LogStreamer
	loc       *time.Location
	now       func() time.Time
}

type Option func(*AnalyticsService)

// WithPublisher enables refresh events; without it refreshes are silent.
func WithPublisher(p Publisher) Option {
	return func(s *AnalyticsService) { s.publisher = p }
}

// WithLocation sets the zone that decides calendar days for the streak and rating history.
func WithLocation(loc *time.Location) Option {
	return func(s *AnalyticsService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *AnalyticsService) { s.now = now }
}

func NewService(fetcher Fetcher, store Store, c cache.Cache, board cache.Board, log *logger.LogStreamer, opts ...Option) *AnalyticsService {
	if log == nil {
		log = logger.Nop()
	}
	svc := &AnalyticsService{
		fetcher: fetcher,
		store:   store,
		cache:   c,
		board:   board,
		logger:  log,
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger.Log(zapcore.InfoLevel, uuid.New().String(), "AnalyticsService initialized", map[string]any{
		"method":   "NewService",
		"timezone": svc.loc.String(),
	}, "SERVICE", nil)
	return svc
}

// createGrpcError constructs a gRPC error
func (s *AnalyticsService) createGrpcError(code codes.Code, message string, errorType string, cause error) error {
	details := message
	if cause != nil {
		details = message + ": " + cause.Error()
	}
	return status.Error(code, fmt.Sprintf("ErrorType: %s, Code: %d, Details: %s", errorType, code, details))
}

// Codeforces handles are 3 to 24 characters; older accounts can be shorter.
var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,24}$`)

func (s *AnalyticsService) validHandle(traceID, method, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if !handlePattern.MatchString(handle) {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Invalid handle", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", nil)
		return "", s.createGrpcError(codes.InvalidArgument, fmt.Sprintf("invalid handle %q", handle), "VALIDATION_ERROR", nil)
	}
	return handle, nil
}

func (s *AnalyticsService) upstreamError(traceID, method, handle string, err error) error {
	code, errorType := codes.Unavailable, "UPSTREAM_ERROR"
	var apiErr *codeforces.APIError
	switch {
	case errors.Is(err, codeforces.ErrHandleNotFound):
		code, errorType = codes.NotFound, "NOT_FOUND"
	case errors.Is(err, codeforces.ErrEmptyHandle):
		code, errorType = codes.InvalidArgument, "VALIDATION_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.As(err, &apiErr):
		code = codes.FailedPrecondition
	}
	s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to fetch Codeforces data", map[string]any{
		"method":    method,
		"handle":    handle,
		"errorType": errorType,
	}, "SERVICE", err)
	return s.createGrpcError(code, fmt.Sprintf("fetching %s", handle), errorType, err)
}

// loadSnapshot reads the three resources cache-aside and validates them.
func (s *AnalyticsService) loadSnapshot(ctx context.Context, traceID, method, handle string) (model.Snapshot, error) {
	var snap model.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := cachedFetch(gctx, s, traceID, method, cache.UserInfoKey(handle), cache.UserInfoTTL, func(ctx context.Context) (model.UserInfo, error) {
			return s.fetcher.GetUserInfo(ctx, handle)
		})
		snap.UserInfo = u
		return err
	})
	g.Go(func() error {
		subs, err := cachedFetch(gctx, s, traceID, method, cache.SubmissionsKey(handle), cache.SubmissionsTTL, func(ctx context.Context) ([]model.Submission, error) {
			return s.fetcher.GetUserSubmissions(ctx, handle)
		})
		snap.Submissions = subs
		return err
	})
	g.Go(func() error {
		contests, err := cachedFetch(gctx, s, traceID, method, cache.RatingKey(handle), cache.ContestsTTL, func(ctx context.Context) ([]model.Contest, error) {
			return s.fetcher.GetUserRating(ctx, handle)
		})
		snap.Contests = contests
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, s.upstreamError(traceID, method, handle, err)
	}
	if err := s.checkSnapshot(traceID, method, handle, snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func (s *AnalyticsService) checkSnapshot(traceID, method, handle string, snap model.Snapshot) error {
	if err := aggregator.Validate(snap); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Codeforces returned a malformed snapshot", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", err)
		return s.createGrpcError(codes.Internal, fmt.Sprintf("malformed data for %s", handle), "VALIDATION_ERROR", err)
	}
	return nil
}

// cachedFetch never fails on cache errors; they are logged and the fetch proceeds.
func cachedFetch[T any](ctx context.Context, s *AnalyticsService, traceID, method, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	v, ok, err := cache.GetJSON[T](ctx, s.cache, key)
	if err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Cache read failed", map[string]any{
			"method":    method,
			"cacheKey":  key,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
	if ok {
		s.logger.Log(zapcore.DebugLevel, traceID, "Retrieved from cache", map[string]any{
			"method":   method,
			"cacheKey": key,
		}, "SERVICE", nil)
		return v, nil
	}

	v, err = fetch(ctx)
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, v, ttl); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to cache response", map[string]any{
			"method":    method,
			"cacheKey":  key,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
	return v, nil
}

// today is the reference instant for calendar-day computations.
func (s *AnalyticsService) today() time.Time {
	return s.now().In(s.loc)
}
