package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"

	"cfanalytics/aggregator"
	"cfanalytics/cache"
	"cfanalytics/model"
	"cfanalytics/utils"
)

const (
	reportVerdicts  = 8
	reportLanguages = 10
	maxCompared     = 5
)

// GetDashboard assembles every widget's data for handle.
func (s *AnalyticsService) GetDashboard(ctx context.Context, handle string) (*model.Dashboard, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting GetDashboard", map[string]any{
		"method": "GetDashboard",
		"handle": handle,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "GetDashboard", handle)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, traceID, "GetDashboard", handle)
	if err != nil {
		return nil, err
	}

	dashboard := buildDashboard(snap, s.today(), s.loc)
	dashboard.Widgets = EnabledWidgets(s.widgetsFor(ctx, traceID, "GetDashboard", handle))

	s.logger.Log(zapcore.InfoLevel, traceID, "GetDashboard completed", map[string]any{
		"method":      "GetDashboard",
		"handle":      handle,
		"submissions": len(snap.Submissions),
		"contests":    len(snap.Contests),
	}, "SERVICE", nil)
	return dashboard, nil
}

func buildDashboard(snap model.Snapshot, now time.Time, loc *time.Location) *model.Dashboard {
	stats := aggregator.ComputeDerivedStats(snap.UserInfo, snap.Submissions, snap.Contests)
	languages := aggregator.LanguageDistribution(snap.Submissions)

	d := &model.Dashboard{
		UserInfo:              snap.UserInfo,
		Stats:                 stats,
		Streak:                aggregator.DailySolveStreak(snap.Submissions, now),
		PeakDifficulty:        aggregator.PeakDifficulty(snap.Submissions),
		LanguageDistribution:  orEmpty(languages),
		DifficultyProgression: orEmpty(aggregator.DifficultyProgression(snap.Submissions)),
		VerdictHistogram:      orEmpty(aggregator.VerdictHistogram(snap.Submissions)),
		RatingBuckets:         orEmpty(aggregator.RatingBucketHistogram(snap.Submissions)),
		RatingHistory:         orEmpty(aggregator.RatingHistory(snap.Contests, loc)),
		Achievements:          orEmpty(aggregator.Achievements(stats)),
		RankTier:              aggregator.RankTier(snap.UserInfo.Rank),
		GeneratedAt:           now,
	}
	if predicted, ok := aggregator.PredictNextRating(snap.Contests); ok {
		d.PredictedRating = &predicted
	}
	if len(languages) > 0 {
		d.TopLanguage = utils.ShortLanguageName(languages[0].Language)
		d.TopLanguageSolved = languages[0].Count
	}
	return d
}

// GetStats returns only the four headline numbers.
func (s *AnalyticsService) GetStats(ctx context.Context, handle string) (*model.DerivedStats, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting GetStats", map[string]any{
		"method": "GetStats",
		"handle": handle,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "GetStats", handle)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, traceID, "GetStats", handle)
	if err != nil {
		return nil, err
	}
	stats := aggregator.ComputeDerivedStats(snap.UserInfo, snap.Submissions, snap.Contests)

	s.logger.Log(zapcore.InfoLevel, traceID, "GetStats completed", map[string]any{
		"method": "GetStats",
		"handle": handle,
		"solved": stats.SolvedProblems,
	}, "SERVICE", nil)
	return &stats, nil
}

// CompareUsers compares handle against up to five other handles.
func (s *AnalyticsService) CompareUsers(ctx context.Context, handle string, others []string) (*model.Comparison, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting CompareUsers", map[string]any{
		"method": "CompareUsers",
		"handle": handle,
		"others": others,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "CompareUsers", handle)
	if err != nil {
		return nil, err
	}
	if len(others) == 0 || len(others) > maxCompared {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Wrong number of handles to compare", map[string]any{
			"method":    "CompareUsers",
			"count":     len(others),
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", nil)
		return nil, s.createGrpcError(codes.InvalidArgument, fmt.Sprintf("between 1 and %d handles can be compared", maxCompared), "VALIDATION_ERROR", nil)
	}

	seen := map[string]bool{cache.CanonicalHandle(handle): true}
	cleaned := make([]string, 0, len(others))
	for _, o := range others {
		o, err := s.validHandle(traceID, "CompareUsers", o)
		if err != nil {
			return nil, err
		}
		key := cache.CanonicalHandle(o)
		if seen[key] {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Duplicate handle in comparison", map[string]any{
				"method":    "CompareUsers",
				"handle":    o,
				"errorType": "VALIDATION_ERROR",
			}, "SERVICE", nil)
			return nil, s.createGrpcError(codes.InvalidArgument, fmt.Sprintf("%s is already part of the comparison", o), "VALIDATION_ERROR", nil)
		}
		seen[key] = true
		cleaned = append(cleaned, o)
	}

	baseSnap, err := s.loadSnapshot(ctx, traceID, "CompareUsers", handle)
	if err != nil {
		return nil, err
	}
	baseStats := aggregator.ComputeDerivedStats(baseSnap.UserInfo, baseSnap.Submissions, baseSnap.Contests)
	result := &model.Comparison{
		Base: model.ComparedUser{
			Handle: baseSnap.UserInfo.Handle,
			Rank:   baseSnap.UserInfo.Rank,
			Stats:  baseStats,
		},
		Others: make([]model.ComparedUser, 0, len(cleaned)),
	}
	for _, o := range cleaned {
		snap, err := s.loadSnapshot(ctx, traceID, "CompareUsers", o)
		if err != nil {
			return nil, err
		}
		stats := aggregator.ComputeDerivedStats(snap.UserInfo, snap.Submissions, snap.Contests)
		cmp := aggregator.Compare(baseStats, stats)
		result.Others = append(result.Others, model.ComparedUser{
			Handle:     snap.UserInfo.Handle,
			Rank:       snap.UserInfo.Rank,
			Stats:      stats,
			Comparison: &cmp,
		})
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "CompareUsers completed", map[string]any{
		"method": "CompareUsers",
		"handle": handle,
		"count":  len(result.Others),
	}, "SERVICE", nil)
	return result, nil
}

// ExportReport is the printable summary of a profile.
func (s *AnalyticsService) ExportReport(ctx context.Context, handle string) (*model.Report, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting ExportReport", map[string]any{
		"method": "ExportReport",
		"handle": handle,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "ExportReport", handle)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, traceID, "ExportReport", handle)
	if err != nil {
		return nil, err
	}
	report := buildReport(snap, s.today())

	s.logger.Log(zapcore.InfoLevel, traceID, "ExportReport completed", map[string]any{
		"method": "ExportReport",
		"handle": handle,
	}, "SERVICE", nil)
	return report, nil
}

func buildReport(snap model.Snapshot, now time.Time) *model.Report {
	u := snap.UserInfo
	report := &model.Report{
		Handle:           u.Handle,
		Rank:             u.Rank,
		Rating:           u.Rating,
		MaxRating:        u.MaxRating,
		Country:          u.Country,
		City:             u.City,
		Stats:            aggregator.ComputeDerivedStats(u, snap.Submissions, snap.Contests),
		Verdicts:         orEmpty(aggregator.RawVerdictCounts(snap.Submissions, reportVerdicts)),
		Languages:        orEmpty(aggregator.Tally(snap.Submissions, aggregator.AnyLanguage, reportLanguages)),
		LanguageFamilies: orEmpty(aggregator.Tally(snap.Submissions, languageFamily, 0)),
		GeneratedAt:      now,
	}
	if perf, ok := aggregator.ContestPerformance(snap.Contests); ok {
		report.ContestPerformance = &perf
	}
	return report
}

func languageFamily(sub model.Submission) (string, bool) {
	family := utils.NormalizeLanguage(sub.ProgrammingLanguage)
	return family, family != ""
}

// GetRecentSubmissions lists submissions newest first; limit 0 returns all of them.
func (s *AnalyticsService) GetRecentSubmissions(ctx context.Context, handle string, limit int) ([]model.RecentSubmission, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting GetRecentSubmissions", map[string]any{
		"method": "GetRecentSubmissions",
		"handle": handle,
		"limit":  limit,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "GetRecentSubmissions", handle)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Negative submission limit", map[string]any{
			"method":    "GetRecentSubmissions",
			"limit":     limit,
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", nil)
		return nil, s.createGrpcError(codes.InvalidArgument, "limit must not be negative", "VALIDATION_ERROR", nil)
	}
	snap, err := s.loadSnapshot(ctx, traceID, "GetRecentSubmissions", handle)
	if err != nil {
		return nil, err
	}
	rows := aggregator.RecentSubmissions(snap.Submissions, limit, s.loc)

	s.logger.Log(zapcore.InfoLevel, traceID, "GetRecentSubmissions completed", map[string]any{
		"method": "GetRecentSubmissions",
		"handle": handle,
		"count":  len(rows),
	}, "SERVICE", nil)
	return rows, nil
}

// GetStatsHistory lists the snapshots recorded by past refreshes, newest first.
func (s *AnalyticsService) GetStatsHistory(ctx context.Context, handle string, limit int) ([]model.StatsSnapshot, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting GetStatsHistory", map[string]any{
		"method": "GetStatsHistory",
		"handle": handle,
		"limit":  limit,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "GetStatsHistory", handle)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListStatsHistory(ctx, cache.CanonicalHandle(handle), limit)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list stats history", map[string]any{
			"method":    "GetStatsHistory",
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "failed to list stats history", "DB_ERROR", err)
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "GetStatsHistory completed", map[string]any{
		"method": "GetStatsHistory",
		"handle": handle,
		"count":  len(history),
	}, "SERVICE", nil)
	return history, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
