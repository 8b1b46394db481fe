package relevance

import (
	"sort"
	"strings"

	"github.com/hrcguru/tech-news-automation/internal/config"
)

// Scorer computes keyword-weighted relevance scores against an injected
// taxonomy. Matching is case-insensitive substring presence: a phrase
// contributes its tier weight once no matter how often it occurs.
type Scorer struct {
	tiers []tier

	urgencyWords []string
	urgencyBonus int

	authorityNames []string
	authorityBonus int

	internationalTerms []string
	internationalBonus int

	categories []category
}

type tier struct {
	weight  int
	phrases []string
}

type category struct {
	label   string
	phrases []string
}

// NewScorer builds a Scorer from the taxonomy, pre-lowering all phrase
// lists. Tier and category iteration order is fixed by sorted names so
// results are deterministic.
func NewScorer(tax config.Taxonomy) *Scorer {
	s := &Scorer{
		urgencyWords:       lowerAll(tax.UrgencyWords),
		urgencyBonus:       tax.UrgencyBonus,
		authorityNames:     lowerAll(tax.AuthorityNames),
		authorityBonus:     tax.AuthorityBonus,
		internationalTerms: lowerAll(tax.InternationalTerms),
		internationalBonus: tax.InternationalBonus,
	}

	tierNames := make([]string, 0, len(tax.Tiers))
	for name := range tax.Tiers {
		tierNames = append(tierNames, name)
	}
	sort.Strings(tierNames)
	for _, name := range tierNames {
		s.tiers = append(s.tiers, tier{
			weight:  tax.Tiers[name].Weight,
			phrases: lowerAll(tax.Tiers[name].Phrases),
		})
	}

	catNames := make([]string, 0, len(tax.Categories))
	for name := range tax.Categories {
		catNames = append(catNames, name)
	}
	sort.Strings(catNames)
	for _, name := range catNames {
		s.categories = append(s.categories, category{
			label:   name,
			phrases: lowerAll(tax.Categories[name]),
		})
	}

	return s
}

// Score returns the relevance score for text. Empty text scores 0; scores
// are never negative.
func (s *Scorer) Score(text string) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	score := 0
	for _, t := range s.tiers {
		for _, phrase := range t.phrases {
			if strings.Contains(lower, phrase) {
				score += t.weight
			}
		}
	}

	if s.urgencyBonus > 0 {
		for _, word := range s.urgencyWords {
			if strings.Contains(lower, word) {
				score += s.urgencyBonus
			}
		}
	}
	if s.authorityBonus > 0 && containsAny(lower, s.authorityNames) {
		score += s.authorityBonus
	}
	if s.internationalBonus > 0 && containsAny(lower, s.internationalTerms) {
		score += s.internationalBonus
	}

	return score
}

// Tags returns the category labels whose keyword lists match text, in
// sorted label order. A category matches on its first phrase hit.
func (s *Scorer) Tags(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var tags []string
	for _, c := range s.categories {
		if containsAny(lower, c.phrases) {
			tags = append(tags, c.label)
		}
	}
	return tags
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
