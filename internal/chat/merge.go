package chat

import (
	"sort"

	"github.com/ugcmarket/realtime-go/internal/models"
)

// Merge upserts a message into a conversation's list by id and returns the
// list ordered by ascending timestamp. Merging the same message twice yields
// the same list as merging it once; equal timestamps keep arrival order.
func Merge(existing []models.Message, incoming models.Message) []models.Message {
	merged := make([]models.Message, 0, len(existing)+1)
	replaced := false
	for _, message := range existing {
		if message.ID == incoming.ID {
			merged = append(merged, incoming)
			replaced = true
			continue
		}
		merged = append(merged, message)
	}
	if !replaced {
		merged = append(merged, incoming)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	return merged
}
