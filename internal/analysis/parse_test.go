package analysis_test

import (
	"testing"

	"github.com/phrazzld/sleepwatch/internal/analysis"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoresLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		want       domain.QualityScoreMap
		outOfRange int
		skipped    int
	}{
		{
			name: "plain lines",
			text: "23:30:80\n23:40:75\n00:10:90",
			want: domain.QualityScoreMap{"23:30": 80, "23:40": 75, "00:10": 90},
		},
		{
			name:    "prose and blank lines are skipped",
			text:    "Here are your scores:\n\n23:30:80\n  23:40:70  \nGood night!",
			want:    domain.QualityScoreMap{"23:30": 80, "23:40": 70},
			skipped: 2,
		},
		{
			name: "last line wins",
			text: "01:00:10\n01:00:60",
			want: domain.QualityScoreMap{"01:00": 60},
		},
		{
			name:       "out of range dropped",
			text:       "02:00:101\n02:10:100\n02:20:0",
			want:       domain.QualityScoreMap{"02:10": 100, "02:20": 0},
			outOfRange: 1,
		},
		{
			name:    "partial matches skipped",
			text:    "02:00:50 points\nscore 02:10:40\n2:5:30",
			want:    domain.QualityScoreMap{"2:5": 30},
			skipped: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := analysis.ParseScores(tc.text)
			require.NoError(t, err)
			assert.Equal(t, analysis.FormatLines, result.Format)
			assert.Equal(t, tc.want, result.Scores)
			assert.Equal(t, tc.outOfRange, result.OutOfRange)
			assert.Equal(t, tc.skipped, result.Skipped)
		})
	}
}

func TestParseScoresJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		want       domain.QualityScoreMap
		outOfRange int
		skipped    int
	}{
		{
			name: "structured",
			text: `{"scores":[{"time":"23:30","score":82},{"time":"23:40","score":64}]}`,
			want: domain.QualityScoreMap{"23:30": 82, "23:40": 64},
		},
		{
			name: "code fenced",
			text: "```json\n{\"scores\":[{\"time\":\"01:00\",\"score\":55}]}\n```",
			want: domain.QualityScoreMap{"01:00": 55},
		},
		{
			name:       "bounds enforced",
			text:       `{"scores":[{"time":"01:00","score":-1},{"time":"01:10","score":150},{"time":"01:20","score":100}]}`,
			want:       domain.QualityScoreMap{"01:20": 100},
			outOfRange: 2,
		},
		{
			name:    "malformed slots skipped",
			text:    `{"scores":[{"time":"late","score":50},{"time":"01:10","score":50.5},{"time":" 01:20 ","score":40}]}`,
			want:    domain.QualityScoreMap{"01:20": 40},
			skipped: 2,
		},
		{
			name: "duplicate slot last wins",
			text: `{"scores":[{"time":"03:00","score":20},{"time":"03:00","score":30}]}`,
			want: domain.QualityScoreMap{"03:00": 30},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := analysis.ParseScores(tc.text)
			require.NoError(t, err)
			assert.Equal(t, analysis.FormatJSON, result.Format)
			assert.Equal(t, tc.want, result.Scores)
			assert.Equal(t, tc.outOfRange, result.OutOfRange)
			assert.Equal(t, tc.skipped, result.Skipped)
		})
	}
}

func TestParseScoresFallsBackFromBrokenJSON(t *testing.T) {
	t.Parallel()

	result, err := analysis.ParseScores("{not json\n04:00:70")
	require.NoError(t, err)
	assert.Equal(t, analysis.FormatLines, result.Format)
	assert.Equal(t, domain.QualityScoreMap{"04:00": 70}, result.Scores)
}

func TestParseScoresErrors(t *testing.T) {
	t.Parallel()

	_, err := analysis.ParseScores("   \n ")
	assert.ErrorIs(t, err, analysis.ErrEmptyResponse)

	_, err = analysis.ParseScores("I could not score this night.")
	assert.ErrorIs(t, err, analysis.ErrNoValidScores)

	_, err = analysis.ParseScores(`{"scores":[{"time":"01:00","score":300}]}`)
	assert.ErrorIs(t, err, analysis.ErrNoValidScores)

	_, err = analysis.ParseScores(`{"scores":[]}`)
	assert.ErrorIs(t, err, analysis.ErrNoValidScores)
}
