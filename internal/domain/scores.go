package domain

import "fmt"

// Score bounds accepted from the scoring service.
const (
	MinQualityScore = 0
	MaxQualityScore = 100
)

// QualityScoreMap maps an "HH:MM" time slot to a sleep-quality score.
type QualityScoreMap map[string]int

// ValidScore reports whether score lies within the accepted range.
func ValidScore(score int) bool {
	return score >= MinQualityScore && score <= MaxQualityScore
}

// Validate checks every score in the map.
func (m QualityScoreMap) Validate() error {
	for slot, score := range m {
		if !ValidScore(score) {
			return fmt.Errorf("%w: slot %s has score %d", ErrInvalidScore, slot, score)
		}
	}
	return nil
}

// Average returns the mean score, or 0 for an empty map.
func (m QualityScoreMap) Average() float64 {
	if len(m) == 0 {
		return 0
	}
	total := 0
	for _, score := range m {
		total += score
	}
	return float64(total) / float64(len(m))
}
