package aggregator

import (
	"time"

	"cfanalytics/model"
)

func intPtr(v int) *int { return &v }

// sub builds a submission; contestID and rating of 0 mean absent.
func sub(contestID int, index, verdict, lang string, at time.Time, rating int) model.Submission {
	p := &model.Problem{Index: index, Name: "Problem " + index}
	if contestID != 0 {
		p.ContestID = intPtr(contestID)
	}
	if rating != 0 {
		p.Rating = intPtr(rating)
	}
	return model.Submission{
		CreationTimeSeconds: at.Unix(),
		Problem:             p,
		ProgrammingLanguage: lang,
		Verdict:             verdict,
	}
}

func contest(id, oldRating, newRating int, at time.Time) model.Contest {
	return model.Contest{
		ContestID:               id,
		RatingUpdateTimeSeconds: at.Unix(),
		OldRating:               oldRating,
		NewRating:               newRating,
	}
}

var refTime = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return refTime.AddDate(0, 0, -n)
}
