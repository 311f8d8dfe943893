package model

import "strconv"

// Records below mirror the Codeforces API objects; fields the dashboard never reads are omitted.

type UserInfo struct {
	Handle                  string `json:"handle"`
	FirstName               string `json:"firstName,omitempty"`
	LastName                string `json:"lastName,omitempty"`
	Country                 string `json:"country,omitempty"`
	City                    string `json:"city,omitempty"`
	Organization            string `json:"organization,omitempty"`
	Contribution            int    `json:"contribution"`
	Rank                    string `json:"rank,omitempty"`
	Rating                  int    `json:"rating,omitempty"`
	MaxRank                 string `json:"maxRank,omitempty"`
	MaxRating               int    `json:"maxRating,omitempty"`
	LastOnlineTimeSeconds   int64  `json:"lastOnlineTimeSeconds"`
	RegistrationTimeSeconds int64  `json:"registrationTimeSeconds"`
	FriendOfCount           int    `json:"friendOfCount"`
	Avatar                  string `json:"avatar,omitempty"`
	TitlePhoto              string `json:"titlePhoto,omitempty"`
}

type Problem struct {
	ContestID      *int     `json:"contestId,omitempty"`
	ProblemsetName string   `json:"problemsetName,omitempty"`
	Index          string   `json:"index"`
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	Points         *float64 `json:"points,omitempty"`
	Rating         *int     `json:"rating,omitempty"`
	Tags           []string `json:"tags"`
}

// ProblemID is contestId+index, or problemsetName+index for problems outside a contest.
func (p Problem) ProblemID() string {
	if p.ContestID != nil {
		return strconv.Itoa(*p.ContestID) + p.Index
	}
	if p.ProblemsetName != "" {
		return p.ProblemsetName + p.Index
	}
	return "problemset" + p.Index
}

// RatingValue treats an absent or zero rating as unrated.
func (p Problem) RatingValue() (int, bool) {
	if p.Rating == nil || *p.Rating == 0 {
		return 0, false
	}
	return *p.Rating, true
}

type Submission struct {
	ID                  int64    `json:"id"`
	ContestID           *int     `json:"contestId,omitempty"`
	CreationTimeSeconds int64    `json:"creationTimeSeconds"`
	RelativeTimeSeconds int64    `json:"relativeTimeSeconds"`
	Problem             *Problem `json:"problem"`
	ProgrammingLanguage string   `json:"programmingLanguage"`
	// Verdict is empty while the submission is still being judged.
	Verdict             string `json:"verdict,omitempty"`
	Testset             string `json:"testset,omitempty"`
	PassedTestCount     int    `json:"passedTestCount"`
	TimeConsumedMillis  int64  `json:"timeConsumedMillis"`
	MemoryConsumedBytes int64  `json:"memoryConsumedBytes"`
}

const VerdictOK = "OK"

func (s Submission) Accepted() bool {
	return s.Verdict == VerdictOK
}

// Contest is one entry of a user's rating history.
type Contest struct {
	ContestID               int    `json:"contestId"`
	ContestName             string `json:"contestName,omitempty"`
	Handle                  string `json:"handle,omitempty"`
	Rank                    int    `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	OldRating               int    `json:"oldRating"`
	NewRating               int    `json:"newRating"`
}

func (c Contest) Delta() int {
	return c.NewRating - c.OldRating
}

// Snapshot is the immutable input handed to the aggregator after each fetch.
type Snapshot struct {
	UserInfo    UserInfo     `json:"userInfo"`
	Submissions []Submission `json:"submissions"`
	Contests    []Contest    `json:"contests"`
}
