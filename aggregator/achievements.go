package aggregator

import (
	"fmt"

	"cfanalytics/model"
)

type rankBadge struct {
	rank      string
	minRating int
}

var rankBadges = []rankBadge{
	{"pupil", 1200},
	{"specialist", 1400},
	{"expert", 1600},
	{"candidate master", 1900},
	{"master", 2100},
	{"international master", 2300},
	{"grandmaster", 2400},
	{"international grandmaster", 2600},
	{"legendary grandmaster", 3000},
}

type milestone struct {
	name      string
	threshold int
}

var problemMilestones = []milestone{
	{"First Steps", 10},
	{"Getting Started", 50},
	{"Problem Solver", 100},
	{"Dedicated Coder", 250},
	{"Programming Master", 500},
	{"Elite Solver", 1000},
}

var contestMilestones = []milestone{
	{"Contest Rookie", 5},
	{"Regular Participant", 20},
	{"Contest Veteran", 50},
	{"Competition Master", 100},
}

// Achievements lists unlocked badges: rank badges by max rating, then solved-problem and contest milestones.
func Achievements(stats model.DerivedStats) []model.Achievement {
	var out []model.Achievement
	for _, b := range rankBadges {
		if stats.MaxRating >= b.minRating {
			out = append(out, model.Achievement{
				Kind:        model.AchievementRank,
				Name:        b.rank,
				Description: fmt.Sprintf("Rating: %d+", b.minRating),
				Threshold:   b.minRating,
				Tier:        RankTier(b.rank),
			})
		}
	}
	for _, m := range problemMilestones {
		if stats.SolvedProblems >= m.threshold {
			out = append(out, model.Achievement{
				Kind:        model.AchievementProblem,
				Name:        m.name,
				Description: fmt.Sprintf("Solved %d problems", m.threshold),
				Threshold:   m.threshold,
			})
		}
	}
	for _, m := range contestMilestones {
		if stats.ContestsParticipated >= m.threshold {
			out = append(out, model.Achievement{
				Kind:        model.AchievementContest,
				Name:        m.name,
				Description: fmt.Sprintf("Participated in %d contests", m.threshold),
				Threshold:   m.threshold,
			})
		}
	}
	return out
}

const (
	TierGray   = "gray"
	TierGreen  = "green"
	TierCyan   = "cyan"
	TierBlue   = "blue"
	TierPurple = "purple"
	TierOrange = "orange"
	TierRed    = "red"
)

// RankTier is the colour tier of a Codeforces rank title; unknown ranks are gray.
func RankTier(rank string) string {
	switch rank {
	case "pupil":
		return TierGreen
	case "specialist":
		return TierCyan
	case "expert":
		return TierBlue
	case "candidate master":
		return TierPurple
	case "master", "international master":
		return TierOrange
	case "grandmaster", "international grandmaster", "legendary grandmaster":
		return TierRed
	default:
		return TierGray
	}
}

// ProblemRatingTier is the colour tier of a problem rating; 0 means unrated.
func ProblemRatingTier(rating int) string {
	switch {
	case rating < 1200:
		return TierGray
	case rating < 1400:
		return TierGreen
	case rating < 1600:
		return TierCyan
	case rating < 1900:
		return TierBlue
	case rating < 2100:
		return TierPurple
	case rating < 2400:
		return TierOrange
	default:
		return TierRed
	}
}

// Compare rates base against other metric by metric. Fewer attempts per problem is better.
func Compare(base, other model.DerivedStats) model.MetricComparison {
	return model.MetricComparison{
		SolvedProblems:       direction(float64(base.SolvedProblems), float64(other.SolvedProblems)),
		MaxRating:            direction(float64(base.MaxRating), float64(other.MaxRating)),
		ContestsParticipated: direction(float64(base.ContestsParticipated), float64(other.ContestsParticipated)),
		AverageAttempts:      direction(other.AverageAttempts, base.AverageAttempts),
	}
}

func direction(a, b float64) model.ComparisonDirection {
	switch {
	case a > b:
		return model.DirectionBetter
	case a < b:
		return model.DirectionWorse
	default:
		return model.DirectionEqual
	}
}
