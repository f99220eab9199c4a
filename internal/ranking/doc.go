// Package ranking derives challenge rankings from a snapshot of submissions.
//
// leaderboard.go groups submissions by normalized author and orders
// contestants by total likes. best.go picks each author's strongest
// submission and orders those for the "top recipes" strip. points.go turns
// per-challenge placements into points and builds the global standings used
// when a featured challenge is settled.
//
// Every function is pure: inputs are never mutated and results are rebuilt
// from scratch on each call, so callers may invoke them from any goroutine
// as long as the input slice is not written concurrently.
package ranking
