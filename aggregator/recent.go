package aggregator

import (
	"sort"
	"time"

	"cfanalytics/model"
)

const verdictLabelShortAccepted = "AC"

// RecentSubmissions lists submissions newest first with dates rendered in loc.
// limit <= 0 keeps every submission. The input is not reordered.
func RecentSubmissions(submissions []model.Submission, limit int, loc *time.Location) []model.RecentSubmission {
	sorted := make([]model.Submission, len(submissions))
	copy(sorted, submissions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreationTimeSeconds > sorted[j].CreationTimeSeconds
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]model.RecentSubmission, 0, len(sorted))
	for _, s := range sorted {
		row := model.RecentSubmission{
			ID:       s.ID,
			Language: s.ProgrammingLanguage,
			Verdict:  shortVerdict(s.Verdict),
			Date:     time.Unix(s.CreationTimeSeconds, 0).In(loc).Format(time.DateOnly),
		}
		if s.Problem != nil {
			row.ProblemID = s.Problem.ProblemID()
			row.ProblemName = s.Problem.Name
			if r, ok := s.Problem.RatingValue(); ok {
				row.Rating = r
				row.RatingTier = ProblemRatingTier(r)
			}
		}
		out = append(out, row)
	}
	return out
}

func shortVerdict(verdict string) string {
	if verdict == model.VerdictOK {
		return verdictLabelShortAccepted
	}
	return rawVerdict(verdict)
}
