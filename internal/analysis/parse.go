package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/sleepwatch/internal/domain"
)

// ResponseFormat identifies which contract a response was parsed with.
type ResponseFormat string

const (
	// FormatJSON is the structured {"scores":[...]} contract.
	FormatJSON ResponseFormat = "json"

	// FormatLines is the HH:MM:SCORE line fallback.
	FormatLines ResponseFormat = "lines"
)

var (
	scoreLinePattern = regexp.MustCompile(`^(\d+):(\d+):(\d+)$`)
	slotPattern      = regexp.MustCompile(`^\d+:\d+$`)
)

// ResponseSchema is the structured response requested from the scorer.
type ResponseSchema struct {
	Scores []SlotSchema `json:"scores"`
}

// SlotSchema is one scored interval in the structured response.
type SlotSchema struct {
	Time  string  `json:"time"`
	Score float64 `json:"score"`
}

// ParseResult is the outcome of parsing a scorer response.
type ParseResult struct {
	Scores domain.QualityScoreMap
	Format ResponseFormat
	// OutOfRange counts slots dropped for a score outside 0-100.
	OutOfRange int
	// Skipped counts lines or slots that did not match the contract.
	Skipped int
}

// ParseScores extracts a time-slot to score mapping from text. The JSON
// contract is tried first; otherwise each trimmed line is matched against
// HH:MM:SCORE. Later entries for the same slot overwrite earlier ones.
// ErrNoValidScores is returned when nothing usable remains.
func ParseScores(text string) (ParseResult, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return ParseResult{}, ErrEmptyResponse
	}

	result, ok := parseJSONScores(body)
	if !ok {
		result = parseLineScores(body)
	}

	if len(result.Scores) == 0 {
		return result, fmt.Errorf("%w: %d out of range, %d skipped",
			ErrNoValidScores, result.OutOfRange, result.Skipped)
	}
	return result, nil
}

func parseJSONScores(body string) (ParseResult, bool) {
	if !strings.HasPrefix(body, "{") {
		return ParseResult{}, false
	}

	var schema ResponseSchema
	if err := json.Unmarshal([]byte(body), &schema); err != nil || schema.Scores == nil {
		return ParseResult{}, false
	}

	result := ParseResult{Scores: domain.QualityScoreMap{}, Format: FormatJSON}
	for _, slot := range schema.Scores {
		key := strings.TrimSpace(slot.Time)
		if !slotPattern.MatchString(key) || slot.Score != math.Trunc(slot.Score) {
			result.Skipped++
			continue
		}
		if slot.Score < domain.MinQualityScore || slot.Score > domain.MaxQualityScore {
			result.OutOfRange++
			continue
		}
		result.Scores[key] = int(slot.Score)
	}
	return result, true
}

func parseLineScores(body string) ParseResult {
	result := ParseResult{Scores: domain.QualityScoreMap{}, Format: FormatLines}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := scoreLinePattern.FindStringSubmatch(line)
		if match == nil {
			result.Skipped++
			continue
		}
		score, err := strconv.Atoi(match[3])
		if err != nil || !domain.ValidScore(score) {
			result.OutOfRange++
			continue
		}
		result.Scores[match[1]+":"+match[2]] = score
	}
	return result
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(body string) string {
	if !strings.HasPrefix(body, "```") {
		return body
	}
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		return ""
	}
	body = strings.TrimSpace(body)
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}
