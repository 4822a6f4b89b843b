package analysis_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/sleepwatch/internal/analysis"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObservations(n int) []domain.SensorObservation {
	start := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	observations := make([]domain.SensorObservation, 0, n)
	for i := 0; i < n; i++ {
		observations = append(observations, domain.NewSensorObservation(
			start.Add(time.Duration(i)*10*time.Minute),
			domain.NewVector3(0.01*float64(i), 0.02, 9.81),
			domain.NewVector3(1.5, -2.25, 0),
			domain.DeviceState{Charging: true},
		))
	}
	return observations
}

func newAnalyzer(t *testing.T, scorer analysis.Scorer, timeout time.Duration) (*analysis.Analyzer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := analysis.NewAnalyzer(scorer, analysis.Config{Timeout: timeout}, logger)
	require.NoError(t, err)
	return a, &buf
}

func TestAnalyzeSuccess(t *testing.T) {
	t.Parallel()

	var prompt string
	scorer := analysis.ScorerFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"scores":[{"time":"23:30","score":70},{"time":"23:40","score":85}]}`, nil
	})
	a, _ := newAnalyzer(t, scorer, time.Second)

	scores := a.Analyze(context.Background(), testObservations(3))

	assert.Equal(t, domain.QualityScoreMap{"23:30": 70, "23:40": 85}, scores)
	assert.Contains(t, prompt, `"time":"2330"`)
	assert.Contains(t, prompt, `"noise":null`)
	assert.Contains(t, prompt, "3 samples from 2330 to 2350")
}

func TestAnalyzeEmptyMakesNoCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	scorer := analysis.ScorerFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "00:00:50", nil
	})
	a, _ := newAnalyzer(t, scorer, time.Second)

	assert.Nil(t, a.Analyze(context.Background(), nil))
	assert.Nil(t, a.Analyze(context.Background(), []domain.SensorObservation{}))
	assert.Equal(t, int32(0), calls.Load())
}

func TestAnalyzeWithoutScorerLogsOnce(t *testing.T) {
	t.Parallel()

	a, buf := newAnalyzer(t, nil, time.Second)
	assert.False(t, a.Enabled())

	for i := 0; i < 3; i++ {
		assert.Nil(t, a.Analyze(context.Background(), testObservations(2)))
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "sleep analysis disabled"))
}

func TestAnalyzeFailuresReturnNil(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scorer analysis.ScorerFunc
	}{
		{
			name: "transport error",
			scorer: func(context.Context, string) (string, error) {
				return "", errors.New("connection refused")
			},
		},
		{
			name: "no valid slots",
			scorer: func(context.Context, string) (string, error) {
				return "sorry, no scores tonight", nil
			},
		},
		{
			name: "only out of range",
			scorer: func(context.Context, string) (string, error) {
				return "01:00:120\n01:10:-5", nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, buf := newAnalyzer(t, tc.scorer, time.Second)
			assert.Nil(t, a.Analyze(context.Background(), testObservations(2)))
			assert.Contains(t, buf.String(), "sleep analysis failed")
		})
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	t.Parallel()

	scorer := analysis.ScorerFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	a, buf := newAnalyzer(t, scorer, 20*time.Millisecond)

	start := time.Now()
	assert.Nil(t, a.Analyze(context.Background(), testObservations(1)))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, buf.String(), "deadline exceeded")
}

func TestNewAnalyzerPromptOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("score {{.Count}}: {{.Observations}}"), 0o600))

	var prompt string
	scorer := analysis.ScorerFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "23:30:50", nil
	})
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	a, err := analysis.NewAnalyzer(scorer, analysis.Config{Timeout: time.Second, PromptTemplatePath: path}, logger)
	require.NoError(t, err)

	assert.Equal(t, domain.QualityScoreMap{"23:30": 50}, a.Analyze(context.Background(), testObservations(1)))
	assert.True(t, strings.HasPrefix(prompt, "score 1: ["))
}

func TestNewAnalyzerValidation(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	_, err := analysis.NewAnalyzer(nil, analysis.Config{}, nil)
	assert.Error(t, err)

	_, err = analysis.NewAnalyzer(nil, analysis.Config{PromptTemplatePath: "/nonexistent/prompt.tmpl"}, logger)
	assert.ErrorIs(t, err, analysis.ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "broken.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.Count"), 0o600))
	_, err = analysis.NewAnalyzer(nil, analysis.Config{PromptTemplatePath: path}, logger)
	assert.ErrorIs(t, err, analysis.ErrInvalidConfig)
}
