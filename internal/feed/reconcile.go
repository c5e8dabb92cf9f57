// Package feed implements the comment synchronization engine: it turns
// full-collection snapshots from the change stream into a stable ordered
// view, resolves reply threading, tracks per-session composer state, and
// runs the publish pipeline.
package feed

import (
	"sort"

	"alliancefeed/internal/models"
)

// Reconcile derives the ordered view from a full snapshot: comments sorted
// by creation timestamp, oldest first. Records without a usable timestamp
// sort after every timestamped one, in snapshot-arrival order; a malformed
// record must never crash the feed.
//
// Reconcile is pure. It does not mutate the input, retains no state between
// calls, and the same snapshot always yields the same order.
func Reconcile(snapshot []models.Comment) []models.Comment {
	ordered := make([]models.Comment, len(snapshot))
	copy(ordered, snapshot)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if !a.HasTimestamp() {
			return false
		}
		if !b.HasTimestamp() {
			return true
		}
		return a.Timestamp.Before(b.Timestamp)
	})

	return ordered
}
