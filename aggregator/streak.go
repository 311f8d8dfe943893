package aggregator

import (
	"sort"
	"time"

	"cfanalytics/model"
)

// DailySolveStreak counts consecutive calendar days, ending on the day of now,
// with at least one accepted submission.
//
// Days are evaluated in now's location. Accepted submissions are reduced to
// distinct calendar days, newest first. The day that sits exactly `streak`
// days before today extends the streak; the first larger distance ends it.
// A streak therefore needs a solve today to be non-zero, and any missing day
// breaks it. Days after today are ignored.
func DailySolveStreak(submissions []model.Submission, now time.Time) int {
	loc := now.Location()
	today := dayNumber(now, loc)

	seen := make(map[int64]struct{})
	var days []int64
	for _, s := range submissions {
		if !s.Accepted() {
			continue
		}
		d := dayNumber(time.Unix(s.CreationTimeSeconds, 0), loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	streak := 0
	for _, d := range days {
		diff := int(today - d)
		if diff < streak {
			continue
		}
		if diff > streak {
			break
		}
		streak++
	}
	return streak
}

// dayNumber maps t to a calendar-day ordinal in loc, immune to DST-length days.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
