package aggregator

import (
	"fmt"
	"math"
	"time"

	"cfanalytics/model"
)

const (
	predictionMinContests = 3
	predictionWindow      = 5
)

// PredictNextRating extrapolates the next rating as the latest newRating plus
// the mean delta of the last five contests (fewer if the history is shorter).
// It is a moving-average heuristic, not a model. ok is false with fewer than
// three contests. Contests are taken in the order given, oldest first.
func PredictNextRating(contests []model.Contest) (rating int, ok bool) {
	if len(contests) < predictionMinContests {
		return 0, false
	}
	recent := contests[max(0, len(contests)-predictionWindow):]
	sum := 0
	for _, c := range recent {
		sum += c.Delta()
	}
	avg := float64(sum) / float64(len(recent))
	current := contests[len(contests)-1].NewRating
	return roundHalfUp(float64(current) + avg), true
}

// RatingHistory is the rating line chart series; dates are rendered in loc.
func RatingHistory(contests []model.Contest, loc *time.Location) []model.RatingPoint {
	out := make([]model.RatingPoint, 0, len(contests))
	for i, c := range contests {
		change := 0
		if i > 0 {
			change = c.NewRating - contests[i-1].NewRating
		}
		out = append(out, model.RatingPoint{
			Contest: i + 1,
			Rating:  c.NewRating,
			Name:    fmt.Sprintf("Contest %d", c.ContestID),
			Date:    time.Unix(c.RatingUpdateTimeSeconds, 0).In(loc).Format(time.DateOnly),
			Change:  change,
		})
	}
	return out
}

// ContestPerformance summarises the whole rating history. ok is false when it is empty.
func ContestPerformance(contests []model.Contest) (model.ContestPerformance, bool) {
	if len(contests) == 0 {
		return model.ContestPerformance{}, false
	}
	best, worst := math.MinInt, math.MaxInt
	sum := 0
	for _, c := range contests {
		best = max(best, c.NewRating)
		worst = min(worst, c.NewRating)
		sum += c.Delta()
	}
	return model.ContestPerformance{
		BestRating:         best,
		WorstRating:        worst,
		AverageRatingDelta: round2(float64(sum) / float64(len(contests))),
	}, true
}
