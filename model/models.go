package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GenericResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	ErrorType string `json:"errorType"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// DerivedStats is recomputed from each snapshot and never persisted as a source of truth.
type DerivedStats struct {
	SolvedProblems       int     `json:"solvedProblems" bson:"solvedProblems"`
	MaxRating            int     `json:"maxRating" bson:"maxRating"`
	ContestsParticipated int     `json:"contestsParticipated" bson:"contestsParticipated"`
	AverageAttempts      float64 `json:"averageAttempts" bson:"averageAttempts"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// DifficultyPoint is the hardest problem solved on a UTC calendar day.
type DifficultyPoint struct {
	Date      string `json:"date"`
	MaxRating int    `json:"maxRating"`
}

type VerdictCount struct {
	Verdict string `json:"verdict"`
	Count   int    `json:"count"`
}

type RatingBucket struct {
	Floor int    `json:"floor"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type RatingPoint struct {
	Contest int    `json:"contest"`
	Rating  int    `json:"rating"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Change  int    `json:"change"`
}

type ContestPerformance struct {
	BestRating         int     `json:"bestRating"`
	WorstRating        int     `json:"worstRating"`
	AverageRatingDelta float64 `json:"averageRatingDelta"`
}

type AchievementKind string

const (
	AchievementRank    AchievementKind = "rank"
	AchievementProblem AchievementKind = "problem"
	AchievementContest AchievementKind = "contest"
)

type Achievement struct {
	Kind        AchievementKind `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Threshold   int             `json:"threshold"`
	Tier        string          `json:"tier,omitempty"`
}

type ComparisonDirection string

const (
	DirectionBetter ComparisonDirection = "better"
	DirectionWorse  ComparisonDirection = "worse"
	DirectionEqual  ComparisonDirection = "equal"
)

// MetricComparison reads from the base user's point of view.
type MetricComparison struct {
	SolvedProblems       ComparisonDirection `json:"solvedProblems"`
	MaxRating            ComparisonDirection `json:"maxRating"`
	ContestsParticipated ComparisonDirection `json:"contestsParticipated"`
	AverageAttempts      ComparisonDirection `json:"averageAttempts"`
}

type Widget struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Enabled     bool   `json:"enabled" bson:"enabled"`
	Order       int    `json:"order" bson:"order"`
}

type DashboardLayout struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Handle    string             `json:"handle" bson:"handle"`
	Widgets   []Widget           `json:"widgets" bson:"widgets"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type TrackedHandle struct {
	ID          primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Handle      string             `json:"handle" bson:"handle"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	RefreshedAt *time.Time         `json:"refreshedAt,omitempty" bson:"refreshedAt,omitempty"`
}

type StatsSnapshot struct {
	ID         primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Handle     string             `json:"handle" bson:"handle"`
	Stats      DerivedStats       `json:"stats" bson:"stats"`
	Rating     int                `json:"rating" bson:"rating"`
	Streak     int                `json:"streak" bson:"streak"`
	ComputedAt time.Time          `json:"computedAt" bson:"computedAt"`
}

type BoardEntry struct {
	Handle string `json:"handle"`
	Rating int    `json:"rating"`
	Rank   int64  `json:"rank"`
}

type Dashboard struct {
	UserInfo              UserInfo          `json:"userInfo"`
	Stats                 DerivedStats      `json:"stats"`
	Streak                int               `json:"streak"`
	PredictedRating       *int              `json:"predictedRating,omitempty"`
	PeakDifficulty        int               `json:"peakDifficulty"`
	TopLanguage           string            `json:"topLanguage,omitempty"`
	TopLanguageSolved     int               `json:"topLanguageSolved"`
	LanguageDistribution  []LanguageCount   `json:"languageDistribution"`
	DifficultyProgression []DifficultyPoint `json:"difficultyProgression"`
	VerdictHistogram      []VerdictCount    `json:"verdictHistogram"`
	RatingBuckets         []RatingBucket    `json:"ratingBuckets"`
	RatingHistory         []RatingPoint     `json:"ratingHistory"`
	Achievements          []Achievement     `json:"achievements"`
	RankTier              string            `json:"rankTier"`
	Widgets               []Widget          `json:"widgets"`
	GeneratedAt           time.Time         `json:"generatedAt"`
}

// RecentSubmission is one row of the submission list; Rating is 0 for unrated problems.
type RecentSubmission struct {
	ID          int64  `json:"id"`
	ProblemID   string `json:"problemId"`
	ProblemName string `json:"problemName"`
	Language    string `json:"language"`
	Verdict     string `json:"verdict"`
	Rating      int    `json:"rating,omitempty"`
	RatingTier  string `json:"ratingTier,omitempty"`
	Date        string `json:"date"`
}

type ComparedUser struct {
	Handle string       `json:"handle"`
	Rank   string       `json:"rank"`
	Stats  DerivedStats `json:"stats"`
	// Comparison is from the base user's point of view; nil on the base itself.
	Comparison *MetricComparison `json:"comparison,omitempty"`
}

type Comparison struct {
	Base   ComparedUser   `json:"base"`
	Others []ComparedUser `json:"others"`
}

type Report struct {
	Handle             string              `json:"handle"`
	Rank               string              `json:"rank"`
	Rating             int                 `json:"rating"`
	MaxRating          int                 `json:"maxRating"`
	Country            string              `json:"country"`
	City               string              `json:"city"`
	Stats              DerivedStats        `json:"stats"`
	Verdicts           []VerdictCount      `json:"verdicts"`
	Languages          []LanguageCount     `json:"languages"`
	LanguageFamilies   []LanguageCount     `json:"languageFamilies"`
	ContestPerformance *ContestPerformance `json:"contestPerformance,omitempty"`
	GeneratedAt        time.Time           `json:"generatedAt"`
}
