package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"text/template"
	"time"

	"github.com/phrazzld/sleepwatch/internal/domain"
)

// DefaultTimeout bounds a single analysis when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Config holds analyzer settings.
type Config struct {
	// Timeout bounds one scoring request including retries.
	Timeout time.Duration
	// PromptTemplatePath overrides the built-in prompt when set.
	PromptTemplatePath string
}

// Analyzer scores a finished session through a Scorer.
type Analyzer struct {
	scorer  Scorer
	prompt  *template.Template
	timeout time.Duration
	logger  *slog.Logger

	disabledOnce sync.Once
}

// NewAnalyzer creates an analyzer. A nil scorer is allowed: analysis is then
// disabled for the life of the process and every call returns nil.
func NewAnalyzer(scorer Scorer, cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	prompt, err := LoadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		logger.Warn("invalid analysis timeout specified, using default",
			"specified_timeout", timeout,
			"default_timeout", DefaultTimeout)
		timeout = DefaultTimeout
	}

	return &Analyzer{
		scorer:  scorer,
		prompt:  prompt,
		timeout: timeout,
		logger:  logger.With("component", "sleep_analyzer"),
	}, nil
}

// Enabled reports whether a scorer is configured.
func (a *Analyzer) Enabled() bool {
	return a.scorer != nil
}

// Analyze returns per-interval quality scores for observations, or nil when
// there is nothing to analyze, no scorer is configured, or the request
// fails. Failures are logged and never returned to the caller.
func (a *Analyzer) Analyze(ctx context.Context, observations []domain.SensorObservation) domain.QualityScoreMap {
	if len(observations) == 0 {
		a.logger.InfoContext(ctx, "no observations recorded, skipping analysis")
		return nil
	}

	if a.scorer == nil {
		a.disabledOnce.Do(func() {
			a.logger.WarnContext(ctx, "no scoring credential configured, sleep analysis disabled")
		})
		return nil
	}

	scores, err := a.score(ctx, observations)
	if err != nil {
		a.logger.ErrorContext(ctx, "sleep analysis failed",
			"error", err,
			"observation_count", len(observations))
		return nil
	}
	return scores
}

func (a *Analyzer) score(ctx context.Context, observations []domain.SensorObservation) (domain.QualityScoreMap, error) {
	prompt, err := RenderPrompt(a.prompt, observations)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	a.logger.InfoContext(ctx, "requesting sleep quality scores",
		"observation_count", len(observations),
		"prompt_length", len(prompt))

	text, err := a.scorer.Score(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: scoring request ended: %v", ErrTransientFailure, ctxErr)
		}
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}

	result, err := ParseScores(text)
	if err != nil {
		return nil, err
	}

	if result.OutOfRange > 0 || result.Skipped > 0 {
		a.logger.WarnContext(ctx, "discarded unusable score entries",
			"format", result.Format,
			"out_of_range", result.OutOfRange,
			"skipped", result.Skipped)
	}

	a.logger.InfoContext(ctx, "sleep quality scores received",
		"format", result.Format,
		"slot_count", len(result.Scores),
		"duration_ms", time.Since(start).Milliseconds())

	return result.Scores, nil
}
