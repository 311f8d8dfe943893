package aggregator

import (
	"errors"
	"fmt"

	"cfanalytics/model"
)

var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidContest    = errors.New("invalid contest")
)

// Validate rejects records the aggregation cannot interpret. It stops at the first bad record.
func Validate(snapshot model.Snapshot) error {
	for i, s := range snapshot.Submissions {
		if s.Problem == nil {
			return fmt.Errorf("%w: submission %d at position %d has no problem", ErrInvalidSubmission, s.ID, i)
		}
		if s.Problem.Index == "" {
			return fmt.Errorf("%w: submission %d at position %d has a problem without index", ErrInvalidSubmission, s.ID, i)
		}
		if s.CreationTimeSeconds <= 0 {
			return fmt.Errorf("%w: submission %d at position %d has creation time %d", ErrInvalidSubmission, s.ID, i, s.CreationTimeSeconds)
		}
	}
	for i, c := range snapshot.Contests {
		if c.RatingUpdateTimeSeconds <= 0 {
			return fmt.Errorf("%w: contest %d at position %d has rating update time %d", ErrInvalidContest, c.ContestID, i, c.RatingUpdateTimeSeconds)
		}
	}
	return nil
}
