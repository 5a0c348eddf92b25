package news

import (
	"regexp"

	"github.com/deusflow/industry-news/internal/profile"
)

const (
	defaultBase         = 5
	defaultHighPriority = 3
	defaultEntity       = 2
	defaultQuantity     = 1
	defaultUnit         = 1
	defaultAction       = 1
	defaultActionCap    = 2
)

var (
	digitRe    = regexp.MustCompile(`\d`)
	quantityRe = regexp.MustCompile(`\d+(?:[.,]\d+)*\s?(?:%|퍼센트|[조억만천]+|원|달러|배|명|건|척|톤)`)
)

// Scorer is the lexical importance heuristic. All bonuses are additive.
//
// Actions are cumulative per distinct keyword but capped at ActionCap; the
// entity bonus counts once.
type Scorer struct {
	Base              int
	HighPriorityBonus int
	EntityBonus       int
	QuantityBonus     int
	UnitBonus         int
	ActionBonus       int
	ActionCap         int

	Entities     []string
	Actions      []string
	HighPriority []string
}

// NewScorer builds a scorer with the default weights and the profile lexicon.
func NewScorer(p *profile.Profile) *Scorer {
	return &Scorer{
		Base:              defaultBase,
		HighPriorityBonus: defaultHighPriority,
		EntityBonus:       defaultEntity,
		QuantityBonus:     defaultQuantity,
		UnitBonus:         defaultUnit,
		ActionBonus:       defaultAction,
		ActionCap:         defaultActionCap,
		Entities:          p.Entities,
		Actions:           p.Actions,
		HighPriority:      p.HighPriority,
	}
}

// Score rates an item within the context of its category.
func (s *Scorer) Score(it Item, c profile.Category) int {
	text := fold(it.Title + " " + it.Description)

	score := s.Base

	high := make([]string, 0, len(c.HighPriority)+len(s.HighPriority))
	high = append(high, c.HighPriority...)
	high = append(high, s.HighPriority...)
	score += s.HighPriorityBonus * countMatches(text, high)

	if len(firstMatches(text, s.Entities, 1)) > 0 {
		score += s.EntityBonus
	}

	if digitRe.MatchString(text) {
		score += s.QuantityBonus
		if quantityRe.MatchString(text) {
			score += s.UnitBonus
		}
	}

	actions := s.ActionBonus * countMatches(text, s.Actions)
	if s.ActionCap > 0 && actions > s.ActionCap {
		actions = s.ActionCap
	}
	score += actions

	if score < 0 {
		return 0
	}
	return score
}

// ScoreAll assigns scores in place using each item's own category.
func (s *Scorer) ScoreAll(items []Item, p *profile.Profile) {
	for i := range items {
		items[i].Score = s.Score(items[i], p.Category(items[i].Category))
	}
}

// Classify returns the first category whose match keywords occur in the
// title or description, or the catch-all.
func Classify(it Item, p *profile.Profile) string {
	text := fold(it.Title + " " + it.Description)
	for _, c := range p.Categories {
		if len(c.MatchKeywords) == 0 {
			continue
		}
		if countMatches(text, c.MatchKeywords) > 0 {
			return c.Name
		}
	}
	return profile.Other
}
