package cache

import (
	"strings"
	"time"
)

// TTLs per Codeforces resource.
const (
	UserInfoTTL    = 5 * time.Minute
	SubmissionsTTL = 2 * time.Minute
	ContestsTTL    = 5 * time.Minute
)

const keyPrefix = "cf"

// CanonicalHandle lower-cases a handle; Codeforces handles are case-insensitive.
func CanonicalHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func UserInfoKey(handle string) string {
	return makeKey("user", handle)
}

func SubmissionsKey(handle string) string {
	return makeKey("submissions", handle)
}

func RatingKey(handle string) string {
	return makeKey("rating", handle)
}

// HandleKeys lists every cached resource for a handle.
func HandleKeys(handle string) []string {
	return []string{UserInfoKey(handle), SubmissionsKey(handle), RatingKey(handle)}
}

func makeKey(resource, handle string) string {
	return keyPrefix + ":" + resource + ":" + CanonicalHandle(handle)
}
