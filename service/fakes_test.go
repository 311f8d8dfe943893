package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"cfanalytics/cache"
	"cfanalytics/codeforces"
	"cfanalytics/logger"
	"cfanalytics/model"
)

var refTime = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func daysAgo(n int) int64 {
	return refTime.AddDate(0, 0, -n).Unix()
}

func submission(id int64, contestID int, index, verdict, lang string, at int64, rating int) model.Submission {
	p := &model.Problem{ContestID: intPtr(contestID), Index: index, Name: index}
	if rating > 0 {
		p.Rating = intPtr(rating)
	}
	return model.Submission{
		ID:                  id,
		ContestID:           intPtr(contestID),
		CreationTimeSeconds: at,
		Problem:             p,
		ProgrammingLanguage: lang,
		Verdict:             verdict,
	}
}

// touristSnapshot: three solved problems over two consecutive days, three contests.
func touristSnapshot() model.Snapshot {
	return model.Snapshot{
		UserInfo: model.UserInfo{Handle: "tourist", Rank: "expert", Rating: 1550, MaxRating: 1600, Country: "Belarus", City: "Gomel"},
		Submissions: []model.Submission{
			submission(5, 1, "A", "OK", "GNU C++17", daysAgo(0), 1200),
			submission(4, 1, "B", "WRONG_ANSWER", "GNU C++17", daysAgo(0), 1500),
			submission(3, 1, "B", "OK", "Python 3", daysAgo(1), 1500),
			submission(2, 2, "A", "OK", "GNU C++17", daysAgo(3), 1000),
			submission(1, 2, "C", "TIME_LIMIT_EXCEEDED", "Java 21", daysAgo(3), 0),
		},
		Contests: []model.Contest{
			{ContestID: 1, Rank: 10, OldRating: 1400, NewRating: 1500, RatingUpdateTimeSeconds: daysAgo(20)},
			{ContestID: 2, Rank: 5, OldRating: 1500, NewRating: 1600, RatingUpdateTimeSeconds: daysAgo(10)},
			{ContestID: 3, Rank: 50, OldRating: 1600, NewRating: 1550, RatingUpdateTimeSeconds: daysAgo(2)},
		},
	}
}

func petrSnapshot() model.Snapshot {
	return model.Snapshot{
		UserInfo: model.UserInfo{Handle: "Petr", Rank: "master", Rating: 2200, MaxRating: 2300},
		Submissions: []model.Submission{
			submission(10, 5, "A", "OK", "Java 21", daysAgo(4), 1900),
			submission(11, 5, "B", "OK", "Java 21", daysAgo(4), 2100),
			submission(12, 5, "C", "OK", "Java 21", daysAgo(4), 2400),
			submission(13, 5, "D", "OK", "Java 21", daysAgo(4), 2600),
		},
		Contests: []model.Contest{
			{ContestID: 5, OldRating: 2000, NewRating: 2200, RatingUpdateTimeSeconds: daysAgo(4)},
		},
	}
}

type fakeFetcher struct {
	mu        sync.Mutex
	snapshots map[string]model.Snapshot
	err       error
	calls     map[string]int
}

func newFakeFetcher(snaps ...model.Snapshot) *fakeFetcher {
	f := &fakeFetcher{snapshots: map[string]model.Snapshot{}, calls: map[string]int{}}
	for _, s := range snaps {
		f.snapshots[strings.ToLower(s.UserInfo.Handle)] = s
	}
	return f
}

func (f *fakeFetcher) lookup(call, handle string) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call]++
	if f.err != nil {
		return model.Snapshot{}, f.err
	}
	s, ok := f.snapshots[strings.ToLower(handle)]
	if !ok {
		return model.Snapshot{}, &codeforces.APIError{Method: call, Comment: "handles: User with handle " + handle + " not found"}
	}
	return s, nil
}

func (f *fakeFetcher) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeFetcher) GetUserInfo(_ context.Context, handle string) (model.UserInfo, error) {
	s, err := f.lookup("user.info", handle)
	return s.UserInfo, err
}

func (f *fakeFetcher) GetUserSubmissions(_ context.Context, handle string) ([]model.Submission, error) {
	s, err := f.lookup("user.status", handle)
	return s.Submissions, err
}

func (f *fakeFetcher) GetUserRating(_ context.Context, handle string) ([]model.Contest, error) {
	s, err := f.lookup("user.rating", handle)
	return s.Contests, err
}

func (f *fakeFetcher) FetchSnapshot(_ context.Context, handle string) (model.Snapshot, error) {
	return f.lookup("snapshot", handle)
}

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu       sync.Mutex
	tracked  map[string]model.TrackedHandle
	layouts  map[string]model.DashboardLayout
	history  []model.StatsSnapshot
	failRead bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{tracked: map[string]model.TrackedHandle{}, layouts: map[string]model.DashboardLayout{}}
}

func (s *fakeStore) TrackHandle(_ context.Context, handle string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracked[handle]; ok {
		return false, nil
	}
	s.tracked[handle] = model.TrackedHandle{Handle: handle, CreatedAt: now}
	return true, nil
}

func (s *fakeStore) UntrackHandle(_ context.Context, handle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tracked[handle]
	delete(s.tracked, handle)
	return ok, nil
}

func (s *fakeStore) ListTrackedHandles(context.Context) ([]model.TrackedHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errStoreDown
	}
	out := make([]model.TrackedHandle, 0, len(s.tracked))
	for _, t := range s.tracked {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

func (s *fakeStore) MarkRefreshed(_ context.Context, handle string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tracked[handle]
	t.RefreshedAt = &at
	s.tracked[handle] = t
	return nil
}

func (s *fakeStore) SaveLayout(_ context.Context, layout model.DashboardLayout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[layout.Handle] = layout
	return nil
}

func (s *fakeStore) GetLayout(_ context.Context, handle string) (*model.DashboardLayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errStoreDown
	}
	l, ok := s.layouts[handle]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *fakeStore) SaveStatsSnapshot(_ context.Context, snap model.StatsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]model.StatsSnapshot{snap}, s.history...)
	return nil
}

func (s *fakeStore) ListStatsHistory(_ context.Context, handle string, limit int) ([]model.StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errStoreDown
	}
	out := []model.StatsSnapshot{}
	for _, h := range s.history {
		if h.Handle == handle && (limit <= 0 || len(out) < limit) {
			out = append(out, h)
		}
	}
	return out, nil
}

type published struct {
	subject string
	event   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) PublishJSON(subject string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{subject, v})
	return nil
}

type fixture struct {
	svc       *AnalyticsService
	fetcher   *fakeFetcher
	store     *fakeStore
	cache     *cache.MemoryCache
	board     *cache.MemoryBoard
	publisher *fakePublisher
}

func newFixture(log *logger.LogStreamer, snaps ...model.Snapshot) *fixture {
	f := &fixture{
		fetcher:   newFakeFetcher(snaps...),
		store:     newFakeStore(),
		cache:     cache.NewMemoryCache(nil),
		board:     cache.NewMemoryBoard(),
		publisher: &fakePublisher{},
	}
	f.svc = NewService(f.fetcher, f.store, f.cache, f.board, log,
		WithPublisher(f.publisher),
		WithLocation(time.UTC),
		WithClock(func() time.Time { return refTime }),
	)
	return f
}
