package services

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
)

// TopicFilterStore is the read-write side of the topic rule table.
type TopicFilterStore interface {
	TopicRuleSource
	Create(filter *models.TopicFilter) error
	GetByName(name string) (*models.TopicFilter, error)
	Update(filter *models.TopicFilter) error
	Delete(id uint) error
}

// TopicSyncStats counts what SyncTopicRules changed.
type TopicSyncStats struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
}

// SyncTopicRules makes the active rows of store match rules. Missing rules
// are created and changed ones updated, both as active. Active rows not in
// rules are deleted; inactive rows are left for review. Rules are validated
// before anything is written.
func SyncTopicRules(store TopicFilterStore, rules []TopicRule) (TopicSyncStats, error) {
	var stats TopicSyncStats

	wanted := make([]models.TopicFilter, 0, len(rules))
	listed := make(map[string]bool, len(rules))
	for _, r := range rules {
		f := models.TopicFilter{
			Name:            r.Name,
			Keywords:        r.Keywords,
			StandardNumbers: r.StandardNumbers,
			SectionTitles:   r.SectionTitles,
			IsActive:        true,
		}
		if err := f.Validate(); err != nil {
			return stats, err
		}
		if listed[r.Name] {
			return stats, fmt.Errorf("topic rule %s is listed twice", r.Name)
		}
		listed[r.Name] = true
		wanted = append(wanted, f)
	}

	for i := range wanted {
		want := &wanted[i]
		existing, err := store.GetByName(want.Name)
		switch {
		case errors.Is(err, models.ErrNotFound):
			if err := store.Create(want); err != nil {
				return stats, fmt.Errorf("failed to create topic rule %s: %w", want.Name, err)
			}
			stats.Created++
		case err != nil:
			return stats, fmt.Errorf("failed to read topic rule %s: %w", want.Name, err)
		case sameTopicFilter(existing, want):
			stats.Unchanged++
		default:
			existing.Keywords = want.Keywords
			existing.StandardNumbers = want.StandardNumbers
			existing.SectionTitles = want.SectionTitles
			existing.IsActive = true
			if err := store.Update(existing); err != nil {
				return stats, fmt.Errorf("failed to update topic rule %s: %w", want.Name, err)
			}
			stats.Updated++
		}
	}

	active, err := store.GetActive()
	if err != nil {
		return stats, fmt.Errorf("failed to load topic filters: %w", err)
	}
	for _, f := range active {
		if listed[f.Name] {
			continue
		}
		if err := store.Delete(f.ID); err != nil {
			return stats, fmt.Errorf("failed to delete topic rule %s: %w", f.Name, err)
		}
		stats.Deleted++
	}

	return stats, nil
}

func sameTopicFilter(a, b *models.TopicFilter) bool {
	return a.IsActive == b.IsActive &&
		slices.Equal(a.Keywords, b.Keywords) &&
		slices.Equal(a.StandardNumbers, b.StandardNumbers) &&
		slices.Equal(a.SectionTitles, b.SectionTitles)
}
