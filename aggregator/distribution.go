package aggregator

import (
	"fmt"
	"sort"
	"time"

	"cfanalytics/model"
)

const (
	topLanguages         = 3
	progressionEntries   = 10
	bucketWidth          = 200
	defaultProblemRating = 800
	verdictLabelAccepted = "Accepted"
	verdictLabelJudging  = "In Queue"
)

// KeyFunc extracts a tally key from a submission; returning false skips it.
type KeyFunc func(model.Submission) (string, bool)

// AcceptedLanguage keys accepted submissions by their exact language string.
func AcceptedLanguage(s model.Submission) (string, bool) {
	return s.ProgrammingLanguage, s.Accepted()
}

// AnyLanguage keys every submission by its exact language string.
func AnyLanguage(s model.Submission) (string, bool) {
	return s.ProgrammingLanguage, true
}

// Tally counts submissions per key, sorted by count descending. Ties keep the
// order in which keys were first encountered. limit <= 0 keeps every key.
func Tally(submissions []model.Submission, key KeyFunc, limit int) []model.LanguageCount {
	index := make(map[string]int)
	var out []model.LanguageCount
	for _, s := range submissions {
		k, ok := key(s)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, model.LanguageCount{Language: k})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// LanguageDistribution is the top three languages of accepted submissions.
// "C++17" and "C++20" are different languages here.
func LanguageDistribution(submissions []model.Submission) []model.LanguageCount {
	return Tally(submissions, AcceptedLanguage, topLanguages)
}

type timedRating struct {
	at     int64
	rating int
}

// DifficultyProgression is the hardest accepted rated problem per UTC day,
// oldest first, keeping the last ten days.
func DifficultyProgression(submissions []model.Submission) []model.DifficultyPoint {
	var solved []timedRating
	for _, s := range submissions {
		if !s.Accepted() {
			continue
		}
		if r, ok := s.Problem.RatingValue(); ok {
			solved = append(solved, timedRating{at: s.CreationTimeSeconds, rating: r})
		}
	}
	sort.SliceStable(solved, func(i, j int) bool { return solved[i].at < solved[j].at })

	var out []model.DifficultyPoint
	for _, tr := range solved {
		date := time.Unix(tr.at, 0).UTC().Format(time.DateOnly)
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].MaxRating = max(out[n-1].MaxRating, tr.rating)
			continue
		}
		out = append(out, model.DifficultyPoint{Date: date, MaxRating: tr.rating})
	}
	if len(out) > progressionEntries {
		out = out[len(out)-progressionEntries:]
	}
	return out
}

// DisplayVerdict maps OK to "Accepted" and an absent verdict to "In Queue".
func DisplayVerdict(verdict string) string {
	switch verdict {
	case model.VerdictOK:
		return verdictLabelAccepted
	case "":
		return verdictLabelJudging
	default:
		return verdict
	}
}

// VerdictHistogram counts submissions per display verdict in first-seen order.
func VerdictHistogram(submissions []model.Submission) []model.VerdictCount {
	return verdictCounts(submissions, DisplayVerdict, 0)
}

// RawVerdictCounts counts raw verdict strings in first-seen order, as the
// exported report lists them. Submissions still being judged are "In Queue".
func RawVerdictCounts(submissions []model.Submission, limit int) []model.VerdictCount {
	return verdictCounts(submissions, rawVerdict, limit)
}

func rawVerdict(verdict string) string {
	if verdict == "" {
		return verdictLabelJudging
	}
	return verdict
}

func verdictCounts(submissions []model.Submission, label func(string) string, limit int) []model.VerdictCount {
	index := make(map[string]int)
	var out []model.VerdictCount
	for _, s := range submissions {
		v := label(s.Verdict)
		i, seen := index[v]
		if !seen {
			i = len(out)
			index[v] = i
			out = append(out, model.VerdictCount{Verdict: v})
		}
		out[i].Count++
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RatingBucketHistogram buckets accepted submissions into 200-wide rating
// ranges labelled "{floor}-{floor+199}", ascending. Unrated problems count as
// 800. Empty buckets between the lowest and highest observed floor are
// emitted with a zero count so the ranges tile the observed span.
func RatingBucketHistogram(submissions []model.Submission) []model.RatingBucket {
	counts := make(map[int]int)
	lo, hi := 0, -1
	for _, s := range submissions {
		if !s.Accepted() {
			continue
		}
		r, ok := s.Problem.RatingValue()
		if !ok {
			r = defaultProblemRating
		}
		floor := r / bucketWidth * bucketWidth
		if hi < lo {
			lo, hi = floor, floor
		}
		lo, hi = min(lo, floor), max(hi, floor)
		counts[floor]++
	}
	if hi < lo {
		return nil
	}

	out := make([]model.RatingBucket, 0, (hi-lo)/bucketWidth+1)
	for floor := lo; floor <= hi; floor += bucketWidth {
		out = append(out, model.RatingBucket{
			Floor: floor,
			Label: fmt.Sprintf("%d-%d", floor, floor+bucketWidth-1),
			Count: counts[floor],
		})
	}
	return out
}
