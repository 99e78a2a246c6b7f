package services

import (
	"fmt"
	"strings"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
)

// TopicRule narrows retrieval when a question mentions one of its keywords.
type TopicRule struct {
	Name            string
	Keywords        []string
	StandardNumbers []string
	SectionTitles   []string
}

// TopicPolicy turns a question into an index filter. A nil policy, or one
// with no rules, never filters.
type TopicPolicy struct {
	rules []TopicRule
}

func NewTopicPolicy(rules []TopicRule) *TopicPolicy {
	normalized := make([]TopicRule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			continue
		}
		r.Keywords = keywords
		normalized = append(normalized, r)
	}
	return &TopicPolicy{rules: normalized}
}

// TopicPolicyFromSource loads the active rules once.
func TopicPolicyFromSource(src TopicRuleSource) (*TopicPolicy, error) {
	filters, err := src.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load topic filters: %w", err)
	}
	rules := make([]TopicRule, 0, len(filters))
	for _, f := range filters {
		rules = append(rules, TopicRule{
			Name:            f.Name,
			Keywords:        f.Keywords,
			StandardNumbers: f.StandardNumbers,
			SectionTitles:   f.SectionTitles,
		})
	}
	return NewTopicPolicy(rules), nil
}

// Rules returns the number of usable rules.
func (p *TopicPolicy) Rules() int {
	if p == nil {
		return 0
	}
	return len(p.rules)
}

// FilterFor merges every rule whose keyword appears in the question.
// It returns nil when nothing matched.
func (p *TopicPolicy) FilterFor(question string) *models.MetadataFilter {
	if p == nil || len(p.rules) == 0 {
		return nil
	}
	lower := strings.ToLower(question)

	filter := &models.MetadataFilter{}
	seenStd := map[string]bool{}
	seenTitle := map[string]bool{}
	for _, r := range p.rules {
		if !containsAny(lower, r.Keywords) {
			continue
		}
		for _, n := range r.StandardNumbers {
			if !seenStd[n] {
				seenStd[n] = true
				filter.StandardNumbers = append(filter.StandardNumbers, n)
			}
		}
		for _, t := range r.SectionTitles {
			if !seenTitle[t] {
				seenTitle[t] = true
				filter.SectionTitles = append(filter.SectionTitles, t)
			}
		}
	}
	if filter.IsEmpty() {
		return nil
	}
	return filter
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
