package gemini

import "google.golang.org/genai"

var (
	minScore = float64(0)
	maxScore = float64(100)
)

// responseSchema mirrors analysis.ResponseSchema so the model answers with
// {"scores":[{"time":"HH:MM","score":N}]}.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scores": {
				Type:        genai.TypeArray,
				Description: "One entry per elapsed interval of the session, in chronological order.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"time": {
							Type:        genai.TypeString,
							Description: "Clock time at the start of the interval as HH:MM.",
						},
						"score": {
							Type:        genai.TypeInteger,
							Description: "Sleep quality from 0 (awake) to 100 (deep sleep).",
							Minimum:     &minScore,
							Maximum:     &maxScore,
						},
					},
					Required: []string{"time", "score"},
				},
			},
		},
		Required: []string{"scores"},
	}
}
