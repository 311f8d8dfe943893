package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"

	"cfanalytics/cache"
	"cfanalytics/model"
)

var defaultWidgets = []model.Widget{
	{ID: "stats", Name: "Statistics Overview", Description: "Key performance metrics", Enabled: true, Order: 1},
	{ID: "analytics", Name: "Advanced Analytics", Description: "Predictions and streaks", Enabled: true, Order: 2},
	{ID: "rating", Name: "Rating Chart", Description: "Rating progression over time", Enabled: true, Order: 3},
	{ID: "submissions", Name: "Submission Analysis", Description: "Problem solving patterns", Enabled: true, Order: 4},
	{ID: "virtual-list", Name: "Recent Submissions", Description: "Scrolling submission list", Enabled: true, Order: 5},
	{ID: "contests", Name: "Contest History", Description: "Contest participation record", Enabled: true, Order: 6},
	{ID: "problems", Name: "Problem Statistics", Description: "Problem difficulty breakdown", Enabled: true, Order: 7},
	{ID: "comparison", Name: "User Comparison", Description: "Compare with other users", Enabled: true, Order: 8},
	{ID: "achievements", Name: "Achievements", Description: "Unlocked badges and milestones", Enabled: true, Order: 9},
	{ID: "export", Name: "Export Data", Description: "Export the profile report", Enabled: true, Order: 10},
}

// DefaultWidgets returns a fresh copy of the stock layout.
func DefaultWidgets() []model.Widget {
	out := make([]model.Widget, len(defaultWidgets))
	copy(out, defaultWidgets)
	return out
}

// EnabledWidgets keeps the enabled widgets sorted by order.
func EnabledWidgets(widgets []model.Widget) []model.Widget {
	out := make([]model.Widget, 0, len(widgets))
	for _, w := range widgets {
		if w.Enabled {
			out = append(out, w)
		}
	}
	sortWidgets(out)
	return out
}

func sortWidgets(ws []model.Widget) {
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Order < ws[j].Order })
}

// mergeWidgets applies the enabled flag and order of each update onto base.
// Name and description always come from the stock layout.
func mergeWidgets(base, updates []model.Widget) ([]model.Widget, error) {
	index := make(map[string]int, len(base))
	for i, w := range base {
		index[w.ID] = i
	}
	merged := make([]model.Widget, len(base))
	copy(merged, base)

	seen := make(map[string]bool, len(updates))
	for _, u := range updates {
		i, ok := index[u.ID]
		if !ok {
			return nil, fmt.Errorf("unknown widget %q", u.ID)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("widget %q listed twice", u.ID)
		}
		seen[u.ID] = true
		merged[i].Enabled = u.Enabled
		merged[i].Order = u.Order
	}
	sortWidgets(merged)
	return merged, nil
}

// widgetsFor falls back to the stock layout when none is saved or the store fails.
func (s *AnalyticsService) widgetsFor(ctx context.Context, traceID, method, handle string) []model.Widget {
	layout, err := s.store.GetLayout(ctx, cache.CanonicalHandle(handle))
	if err != nil {
		s.logger.Log(zapcore.WarnLevel, traceID, "Failed to load layout, using defaults", map[string]any{
			"method":    method,
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return DefaultWidgets()
	}
	if layout == nil {
		return DefaultWidgets()
	}
	// saved layouts predating a widget still get it
	merged, err := mergeWidgets(DefaultWidgets(), knownWidgets(layout.Widgets))
	if err != nil {
		return DefaultWidgets()
	}
	return merged
}

func knownWidgets(ws []model.Widget) []model.Widget {
	known := make(map[string]bool, len(defaultWidgets))
	for _, w := range defaultWidgets {
		known[w.ID] = true
	}
	out := make([]model.Widget, 0, len(ws))
	for _, w := range ws {
		if known[w.ID] {
			out = append(out, w)
			delete(known, w.ID)
		}
	}
	return out
}

func (s *AnalyticsService) GetLayout(ctx context.Context, handle string) (*model.DashboardLayout, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting GetLayout", map[string]any{
		"method": "GetLayout",
		"handle": handle,
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "GetLayout", handle)
	if err != nil {
		return nil, err
	}
	layout := &model.DashboardLayout{
		Handle:  cache.CanonicalHandle(handle),
		Widgets: s.widgetsFor(ctx, traceID, "GetLayout", handle),
	}
	return layout, nil
}

// UpdateLayout changes the enabled flag and order of the listed widgets; unlisted widgets keep their state.
func (s *AnalyticsService) UpdateLayout(ctx context.Context, handle string, updates []model.Widget) (*model.DashboardLayout, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting UpdateLayout", map[string]any{
		"method":  "UpdateLayout",
		"handle":  handle,
		"widgets": len(updates),
	}, "SERVICE", nil)

	handle, err := s.validHandle(traceID, "UpdateLayout", handle)
	if err != nil {
		return nil, err
	}
	current := s.widgetsFor(ctx, traceID, "UpdateLayout", handle)
	merged, err := mergeWidgets(current, updates)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Invalid layout update", map[string]any{
			"method":    "UpdateLayout",
			"handle":    handle,
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.InvalidArgument, "invalid layout", "VALIDATION_ERROR", err)
	}

	layout := model.DashboardLayout{
		Handle:    cache.CanonicalHandle(handle),
		Widgets:   merged,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.SaveLayout(ctx, layout); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to save layout", map[string]any{
			"method":    "UpdateLayout",
			"handle":    handle,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return nil, s.createGrpcError(codes.Internal, "failed to save layout", "DB_ERROR", err)
	}

	s.logger.Log(zapcore.InfoLevel, traceID, "UpdateLayout completed", map[string]any{
		"method": "UpdateLayout",
		"handle": handle,
	}, "SERVICE", nil)
	return &layout, nil
}
