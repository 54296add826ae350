package cta

import (
	"strings"
	"time"
)

// Score computes the relevance of one CTA for a lower-cased message:
//
//	10 × keyword substring matches
//	+5 when the language condition matches the resolved language exactly
//	   ("both" is eligible but earns no bonus)
//	+priority bonus
//
// Scoring is pure; recording views/clicks is an explicit separate call so
// selection stays side-effect free.
func Score(def Definition, lowerMessage, language string) int {
	score := 0
	for _, keyword := range def.Conditions.Keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowerMessage, strings.ToLower(keyword)) {
			score += 10
		}
	}
	if def.Conditions.Language == language {
		score += 5
	}
	return score + def.Priority.Bonus()
}

// eligible filters to active CTAs whose language condition includes the
// resolved language and whose time window (if any) contains now.
func eligible(def Definition, language string, now time.Time) bool {
	if !def.Active {
		return false
	}
	if def.Conditions.Language != LanguageBoth && def.Conditions.Language != language {
		return false
	}
	if def.Conditions.StartHour != nil && def.Conditions.EndHour != nil {
		hour := now.Hour()
		if hour < *def.Conditions.StartHour || hour >= *def.Conditions.EndHour {
			return false
		}
	}
	return true
}

// FindBest selects the highest-scoring eligible CTA for the message, or nil
// when nothing scores above zero. Ties resolve to catalog order, so
// selection is deterministic for a fixed catalog.
func FindBest(message, language string, catalog []Definition, now time.Time) (*Definition, int) {
	lower := strings.ToLower(message)

	var best *Definition
	bestScore := 0
	for i := range catalog {
		def := &catalog[i]
		if !eligible(*def, language, now) {
			continue
		}
		score := Score(*def, lower, language)
		if score > bestScore {
			best = def
			bestScore = score
		}
	}
	return best, bestScore
}
