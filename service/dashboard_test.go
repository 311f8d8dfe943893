package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cfanalytics/logger"
	"cfanalytics/model"
)

func TestGetDashboard(t *testing.T) {
	f := newFixture(nil, touristSnapshot())

	d, err := f.svc.GetDashboard(context.Background(), "tourist")
	require.NoError(t, err)

	assert.Equal(t, model.DerivedStats{SolvedProblems: 3, MaxRating: 1600, ContestsParticipated: 3, AverageAttempts: 1.3}, d.Stats)
	assert.Equal(t, 2, d.Streak)
	require.NotNil(t, d.PredictedRating)
	assert.Equal(t, 1600, *d.PredictedRating)
	assert.Equal(t, 1500, d.PeakDifficulty)
	assert.Equal(t, "GNU", d.TopLanguage)
	assert.Equal(t, 2, d.TopLanguageSolved)
	assert.Equal(t, []model.LanguageCount{{Language: "GNU C++17", Count: 2}, {Language: "Python 3", Count: 1}}, d.LanguageDistribution)
	assert.Equal(t, []model.VerdictCount{
		{Verdict: "Accepted", Count: 3},
		{Verdict: "WRONG_ANSWER", Count: 1},
		{Verdict: "TIME_LIMIT_EXCEEDED", Count: 1},
	}, d.VerdictHistogram)
	require.Len(t, d.RatingBuckets, 3)
	assert.Equal(t, "1000-1199", d.RatingBuckets[0].Label)
	require.Len(t, d.RatingHistory, 3)
	assert.Equal(t, []int{0, 100, -50}, []int{d.RatingHistory[0].Change, d.RatingHistory[1].Change, d.RatingHistory[2].Change})
	assert.Len(t, d.DifficultyProgression, 3)
	assert.Len(t, d.Achievements, 3)
	assert.Equal(t, "blue", d.RankTier)
	assert.Len(t, d.Widgets, 10)
	assert.Equal(t, refTime, d.GeneratedAt)
}

func TestGetDashboardWithoutHistory(t *testing.T) {
	f := newFixture(nil, model.Snapshot{UserInfo: model.UserInfo{Handle: "newbie"}})

	d, err := f.svc.GetDashboard(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Nil(t, d.PredictedRating)
	assert.Empty(t, d.TopLanguage)
	assert.NotNil(t, d.RatingBuckets)
	assert.Empty(t, d.RatingBuckets)
	assert.NotNil(t, d.Achievements)
	assert.Equal(t, 0, d.Streak)
	assert.Equal(t, "gray", d.RankTier)
}

func TestGetDashboardUsesCache(t *testing.T) {
	f := newFixture(nil, touristSnapshot())
	ctx := context.Background()

	_, err := f.svc.GetDashboard(ctx, "tourist")
	require.NoError(t, err)
	_, err = f.svc.GetStats(ctx, "Tourist")
	require.NoError(t, err)

	assert.Equal(t, 1, f.fetcher.count("user.info"))
	assert.Equal(t, 1, f.fetcher.count("user.status"))
	assert.Equal(t, 1, f.fetcher.count("user.rating"))
}

func TestGetDashboardErrors(t *testing.T) {
	bad := touristSnapshot()
	bad.Submissions[2].Problem = nil
	bad.UserInfo.Handle = "broken"

	cases := []struct {
		name   string
		handle string
		setup  func(*fixture)
		code   codes.Code
	}{
		{name: "invalid handle", handle: "no spaces allowed", code: codes.InvalidArgument},
		{name: "empty handle", handle: " ", code: codes.InvalidArgument},
		{name: "unknown handle", handle: "ghost", code: codes.NotFound},
		{name: "malformed upstream data", handle: "broken", code: codes.Internal},
		{
			name:   "upstream down",
			handle: "tourist",
			setup:  func(f *fixture) { f.fetcher.err = errors.New("connection reset") },
			code:   codes.Unavailable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(nil, touristSnapshot(), bad)
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.GetDashboard(context.Background(), tc.handle)
			require.Error(t, err)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestGetDashboardLogsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := newFixture(logger.NewFromZap(zap.New(core), "cfanalytics"), touristSnapshot())

	_, err := f.svc.GetDashboard(context.Background(), "ghost")
	require.Error(t, err)

	started := logs.FilterMessage("Starting GetDashboard").All()
	require.Len(t, started, 1)
	fields := started[0].ContextMap()
	assert.Equal(t, "GetDashboard", fields["method"])
	assert.Equal(t, "SERVICE", fields["layer"])
	assert.NotEmpty(t, fields["traceId"])

	failed := logs.FilterMessage("Failed to fetch Codeforces data").All()
	require.NotEmpty(t, failed)
	assert.Equal(t, "NOT_FOUND", failed[0].ContextMap()["errorType"])
	assert.Equal(t, fields["traceId"], failed[0].ContextMap()["traceId"])
}

func TestCompareUsers(t *testing.T) {
	f := newFixture(nil, touristSnapshot(), petrSnapshot())

	cmp, err := f.svc.CompareUsers(context.Background(), "tourist", []string{"Petr"})
	require.NoError(t, err)

	assert.Equal(t, "tourist", cmp.Base.Handle)
	assert.Nil(t, cmp.Base.Comparison)
	require.Len(t, cmp.Others, 1)
	other := cmp.Others[0]
	assert.Equal(t, "Petr", other.Handle)
	assert.Equal(t, 4, other.Stats.SolvedProblems)
	require.NotNil(t, other.Comparison)
	assert.Equal(t, model.MetricComparison{
		SolvedProblems:       model.DirectionWorse,
		MaxRating:            model.DirectionWorse,
		ContestsParticipated: model.DirectionBetter,
		AverageAttempts:      model.DirectionWorse,
	}, *other.Comparison)
}

func TestCompareUsersRejectsBadInput(t *testing.T) {
	f := newFixture(nil, touristSnapshot(), petrSnapshot())
	ctx := context.Background()

	for name, others := range map[string][]string{
		"self":      {"Tourist"},
		"duplicate": {"petr", "PETR"},
		"none":      {},
		"too many":  {"a", "b", "c", "d", "e", "f"},
		"invalid":   {"not a handle"},
	} {
		_, err := f.svc.CompareUsers(ctx, "tourist", others)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), name)
	}
	assert.Zero(t, f.fetcher.count("user.info"))
}

func TestExportReport(t *testing.T) {
	f := newFixture(nil, touristSnapshot())

	r, err := f.svc.ExportReport(context.Background(), "tourist")
	require.NoError(t, err)

	assert.Equal(t, "Belarus", r.Country)
	assert.Equal(t, 1550, r.Rating)
	assert.Equal(t, []model.VerdictCount{
		{Verdict: "OK", Count: 3},
		{Verdict: "WRONG_ANSWER", Count: 1},
		{Verdict: "TIME_LIMIT_EXCEEDED", Count: 1},
	}, r.Verdicts)
	assert.Equal(t, []model.LanguageCount{
		{Language: "GNU C++17", Count: 3},
		{Language: "Python 3", Count: 1},
		{Language: "Java 21", Count: 1},
	}, r.Languages)
	assert.Equal(t, []model.LanguageCount{
		{Language: "cpp", Count: 3},
		{Language: "python", Count: 1},
		{Language: "java", Count: 1},
	}, r.LanguageFamilies)
	require.NotNil(t, r.ContestPerformance)
	assert.Equal(t, model.ContestPerformance{BestRating: 1600, WorstRating: 1500, AverageRatingDelta: 50}, *r.ContestPerformance)
}

func TestExportReportWithoutContests(t *testing.T) {
	f := newFixture(nil, petrSnapshot())
	snap := petrSnapshot()
	snap.Contests = nil
	f.fetcher.snapshots["petr"] = snap

	r, err := f.svc.ExportReport(context.Background(), "petr")
	require.NoError(t, err)
	assert.Nil(t, r.ContestPerformance)
}

func TestGetRecentSubmissions(t *testing.T) {
	f := newFixture(nil, touristSnapshot())

	rows, err := f.svc.GetRecentSubmissions(context.Background(), "tourist", 0)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, []int64{rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID, rows[4].ID})
	assert.Equal(t, model.RecentSubmission{
		ID:          5,
		ProblemID:   "1A",
		ProblemName: "A",
		Language:    "GNU C++17",
		Verdict:     "AC",
		Rating:      1200,
		RatingTier:  "green",
		Date:        "2024-03-10",
	}, rows[0])
	assert.Equal(t, "WRONG_ANSWER", rows[1].Verdict)
	assert.Empty(t, rows[4].RatingTier)

	rows, err = f.svc.GetRecentSubmissions(context.Background(), "tourist", 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.svc.GetRecentSubmissions(context.Background(), "tourist", -1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetStatsHistory(t *testing.T) {
	f := newFixture(nil)
	f.store.history = []model.StatsSnapshot{
		{Handle: "tourist", Rating: 1550},
		{Handle: "petr", Rating: 2200},
	}

	history, err := f.svc.GetStatsHistory(context.Background(), "Tourist", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1550, history[0].Rating)

	f.store.failRead = true
	_, err = f.svc.GetStatsHistory(context.Background(), "tourist", 10)
	assert.Equal(t, codes.Internal, status.Code(err))
}
