// Package reconcile turns the online and archived states of the forum into
// the plan of what needs downloading.
package reconcile

import (
	"github.com/zvonler/talkarchive/model"
)

// Diff returns the topics present online that have no structural match in
// the local archive, grouped by board in online order. Boards absent from the
// archive are planned whole. Boards that only exist locally are ignored.
// Neither input is modified.
func Diff(online, local *model.Listing) *model.Plan {
	plan := &model.Plan{}
	for _, board := range online.Boards() {
		archived, ok := local.Get(board.Name)
		if !ok {
			plan.Add(board.Clone())
			continue
		}

		var entry *model.Board
		for _, topic := range board.Topics {
			if archived.HasTopic(topic) {
				continue
			}
			if entry == nil {
				entry = board.Summary()
				plan.Add(entry)
			}
			entry.Topics = append(entry.Topics, topic)
		}
	}
	return plan
}

// FullRefresh plans the complete online state regardless of the archive.
func FullRefresh(online *model.Listing) *model.Plan {
	plan := &model.Plan{}
	for _, board := range online.Boards() {
		plan.Add(board.Clone())
	}
	return plan
}
