// Package aggregator turns a Codeforces snapshot (submissions and rating
// history) into the counters, streaks and chart series shown on the
// dashboard.
//
// Every function is pure: inputs are never mutated, no state survives a
// call, and identical input yields identical output. The only time
// dependency is the reference instant passed explicitly to
// DailySolveStreak and RatingHistory.
//
// Input is expected to have passed Validate. Empty input is not an error;
// each function documents its neutral result.
package aggregator
