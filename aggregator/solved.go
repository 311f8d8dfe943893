package aggregator

import (
	"math"

	"cfanalytics/model"
)

// UniqueSolvedCount is the number of distinct problem ids with at least one accepted submission.
func UniqueSolvedCount(submissions []model.Submission) int {
	solved := make(map[string]struct{})
	for _, s := range submissions {
		if s.Accepted() {
			solved[s.Problem.ProblemID()] = struct{}{}
		}
	}
	return len(solved)
}

type attempts struct {
	count  int
	solved bool
}

// AverageAttempts is the mean number of submissions per solved problem, rounded to one decimal.
//
// All submissions are grouped by problem id first; only groups containing an
// accepted submission contribute. Submissions to problems that were never
// solved do not move the result. Returns 0 when nothing is solved.
func AverageAttempts(submissions []model.Submission) float64 {
	groups := make(map[string]attempts)
	for _, s := range submissions {
		id := s.Problem.ProblemID()
		g := groups[id]
		g.count++
		if s.Accepted() {
			g.solved = true
		}
		groups[id] = g
	}

	total, solved := 0, 0
	for _, g := range groups {
		if !g.solved {
			continue
		}
		total += g.count
		solved++
	}
	if solved == 0 {
		return 0
	}
	return round1(float64(total) / float64(solved))
}

// ComputeDerivedStats builds the headline counters. An absent maxRating counts as 0.
func ComputeDerivedStats(user model.UserInfo, submissions []model.Submission, contests []model.Contest) model.DerivedStats {
	return model.DerivedStats{
		SolvedProblems:       UniqueSolvedCount(submissions),
		MaxRating:            user.MaxRating,
		ContestsParticipated: len(contests),
		AverageAttempts:      AverageAttempts(submissions),
	}
}

// PeakDifficulty is the highest rating among accepted rated problems, 0 if none.
func PeakDifficulty(submissions []model.Submission) int {
	peak := 0
	for _, s := range submissions {
		if !s.Accepted() {
			continue
		}
		if r, ok := s.Problem.RatingValue(); ok && r > peak {
			peak = r
		}
	}
	return peak
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundHalfUp matches the dashboard's rounding of .5 towards positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
