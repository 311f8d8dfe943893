package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"

	"cfanalytics/aggregator"
	"cfanalytics/cache"
	"cfanalytics/model"
	"cfanalytics/natsclient"
)

// RefreshEvent is published after each handle is recomputed.
type RefreshEvent struct {
	Handle      string             `json:"handle"`
	Stats       model.DerivedStats `json:"stats"`
	Rating      int                `json:"rating"`
	Streak      int                `json:"streak"`
	RefreshedAt time.Time          `json:"refreshedAt"`
}

type RefreshSummary struct {
	Refreshed int      `json:"refreshed"`
	Failed    []string `json:"failed"`
}

// RefreshTrackedHandles refetches every tracked handle. One failing handle does not stop the run.
func (s *AnalyticsService) RefreshTrackedHandles(ctx context.Context) (RefreshSummary, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting RefreshTrackedHandles", map[string]any{
		"method": "RefreshTrackedHandles",
	}, "SERVICE", nil)

	summary := RefreshSummary{Failed: []string{}}
	tracked, err := s.store.ListTrackedHandles(ctx)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list tracked handles", map[string]any{
			"method":    "RefreshTrackedHandles",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return summary, s.createGrpcError(codes.Internal, "failed to list tracked handles", "DB_ERROR", err)
	}

	for _, t := range tracked {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := s.refreshHandle(ctx, traceID, t.Handle); err != nil {
			summary.Failed = append(summary.Failed, t.Handle)
			continue
		}
		summary.Refreshed++
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "RefreshTrackedHandles completed", map[string]any{
		"method":    "RefreshTrackedHandles",
		"refreshed": summary.Refreshed,
		"failed":    len(summary.Failed),
	}, "SERVICE", nil)
	return summary, nil
}

func (s *AnalyticsService) refreshHandle(ctx context.Context, traceID, handle string) error {
	const method = "RefreshTrackedHandles"

	snap, err := s.fetcher.FetchSnapshot(ctx, handle)
	if err != nil {
		return s.upstreamError(traceID, method, handle, err)
	}
	if err := s.checkSnapshot(traceID, method, handle, snap); err != nil {
		return err
	}

	now := s.today()
	record := model.StatsSnapshot{
		Handle:     handle,
		Stats:      aggregator.ComputeDerivedStats(snap.UserInfo, snap.Submissions, snap.Contests),
		Rating:     snap.UserInfo.Rating,
		Streak:     aggregator.DailySolveStreak(snap.Submissions, now),
		ComputedAt: now.UTC(),
	}
	if err := s.store.SaveStatsSnapshot(ctx, record); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to save stats snapshot", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return err
	}
	if err := s.store.MarkRefreshed(ctx, handle, record.ComputedAt); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to mark handle refreshed", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
	}
	if err := s.board.Update(ctx, handle, record.Rating); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to update rating board", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
	if err := s.cache.Delete(ctx, cache.HandleKeys(handle)...); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to invalidate cached snapshot", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "CACHE_ERROR",
		}, "SERVICE", err)
	}
	s.publishRefresh(traceID, record)
	return nil
}

func (s *AnalyticsService) publishRefresh(traceID string, record model.StatsSnapshot) {
	if s.publisher == nil {
		return
	}
	event := RefreshEvent{
		Handle:      record.Handle,
		Stats:       record.Stats,
		Rating:      record.Rating,
		Streak:      record.Streak,
		RefreshedAt: record.ComputedAt,
	}
	if err := s.publisher.PublishJSON(natsclient.SubjectStatsRefreshed, event); err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to publish refresh event", map[string]any{
			"method":    "RefreshTrackedHandles",
			"handle":    record.Handle,
			"subject":   natsclient.SubjectStatsRefreshed,
			"errorType": "PUBLISH_ERROR",
		}, "SERVICE", err)
	}
}

// StartCronJob schedules RefreshTrackedHandles; overlapping runs are skipped. The caller stops the returned scheduler.
func (s *AnalyticsService) StartCronJob(schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		s.logger.Log(zapcore.InfoLevel, "", "Refreshing tracked handles", map[string]any{
			"method":   "RefreshCronJob",
			"schedule": schedule,
		}, "CRON", nil)
		if _, err := s.RefreshTrackedHandles(context.Background()); err != nil {
			s.logger.Log(zapcore.ErrorLevel, "", "Refresh run failed", map[string]any{
				"method": "RefreshCronJob",
			}, "CRON", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	c.Start() // does not block
	return c, nil
}
