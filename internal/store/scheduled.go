// ABOUTME: Scheduled-item index over deferred outbound messages
// ABOUTME: Answers "what is due for this character by now" with an index scan and a time filter

package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ScheduledCollection is the scheduled-messages accessor.
type ScheduledCollection struct {
	*Collection[string, ScheduledMessage]
}

// ByCharacter returns every scheduled item for a character.
func (s *ScheduledCollection) ByCharacter(ctx context.Context, charID string) ([]ScheduledMessage, error) {
	return s.GetAllByIndex(ctx, "charId", charID)
}

// GetDue returns the character's items with dueAt <= now, earliest first.
// Fired items stay in the index until the caller deletes them.
func (s *ScheduledCollection) GetDue(ctx context.Context, charID string, now time.Time) ([]ScheduledMessage, error) {
	items, err := s.ByCharacter(ctx, charID)
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled messages: %w", err)
	}

	cutoff := now.UnixMilli()
	due := make([]ScheduledMessage, 0, len(items))
	for _, item := range items {
		if item.DueAt <= cutoff {
			due = append(due, item)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueAt < due[j].DueAt
	})
	return due, nil
}
