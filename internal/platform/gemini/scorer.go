package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/sleepwatch/internal/analysis"
	"github.com/phrazzld/sleepwatch/internal/config"
	"google.golang.org/genai"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// ContentGenerator is the subset of the genai client used by Scorer.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Scorer implements analysis.Scorer using Google's Gemini API.
type Scorer struct {
	logger     *slog.Logger
	generator  ContentGenerator
	model      string
	maxRetries int
	retryDelay time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ analysis.Scorer = (*Scorer)(nil)

// NewScorer creates a Scorer backed by a real Gemini client.
func NewScorer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Scorer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	logger.InfoContext(ctx, "Initializing Gemini scorer", "model", cfg.ModelName)

	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", analysis.ErrInvalidConfig, err)
	}

	return NewScorerWithGenerator(logger, client.Models, cfg)
}

// NewScorerWithGenerator creates a Scorer around an existing generator.
func NewScorerWithGenerator(logger *slog.Logger, generator ContentGenerator, cfg config.LLMConfig) (*Scorer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", analysis.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		logger.Warn("Invalid max retries value, using default", "max_retries", defaultMaxRetries)
		maxRetries = defaultMaxRetries
	}

	retryDelay := cfg.RetryDelay()
	if retryDelay <= 0 {
		logger.Warn("Invalid retry delay value, using default", "retry_delay", defaultRetryDelay.String())
		retryDelay = defaultRetryDelay
	}

	return &Scorer{
		logger:     logger.With("component", "gemini_scorer"),
		generator:  generator,
		model:      cfg.ModelName,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Score sends prompt to Gemini and returns the response text.
//
// It attempts the call up to maxRetries+1 times, using exponential backoff
// with jitter between attempts for transient errors. Permanent errors, such
// as content blocked by safety filters, are returned immediately.
func (s *Scorer) Score(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", analysis.ErrInvalidResponse)
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		s.logger.InfoContext(ctx, "Making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", s.maxRetries+1)

		text, err := s.generate(ctx, prompt, genConfig)
		if err == nil {
			s.logger.InfoContext(ctx, "Gemini API call successful",
				"attempt", attemptNum,
				"response_length", len(text))
			return text, nil
		}

		s.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if !errors.Is(err, analysis.ErrTransientFailure) {
			s.logger.WarnContext(ctx, "Permanent error occurred, not retrying")
			return "", err
		}

		if attempt >= s.maxRetries {
			s.logger.WarnContext(ctx, "Maximum retry attempts reached",
				"max_retries", s.maxRetries)
			return "", fmt.Errorf("exceeded maximum retry attempts (%d): %w", s.maxRetries, err)
		}

		delay := s.backoff(attempt)
		s.logger.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay_ms", delay.Milliseconds())

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return "", fmt.Errorf("%w: %v", analysis.ErrTransientFailure, ctx.Err())
		}
	}
}

// generate performs one API call and classifies its failure.
func (s *Scorer) generate(ctx context.Context, prompt string, genConfig *genai.GenerateContentConfig) (string, error) {
	resp, err := s.generator.GenerateContent(ctx, s.model, genai.Text(prompt), genConfig)
	if err != nil {
		if ctx.Err() != nil {
			// A cancelled or expired context will not recover on retry.
			return "", fmt.Errorf("gemini request aborted: %w", ctx.Err())
		}
		if isTransient(err) {
			return "", fmt.Errorf("%w: %v", analysis.ErrTransientFailure, err)
		}
		return "", fmt.Errorf("%w: %v", analysis.ErrInvalidResponse, err)
	}

	switch {
	case resp == nil:
		return "", fmt.Errorf("%w: nil response", analysis.ErrInvalidResponse)
	case len(resp.Candidates) == 0:
		return "", fmt.Errorf("%w: no content generated", analysis.ErrInvalidResponse)
	case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
		return "", fmt.Errorf("%w: content blocked by safety filters", analysis.ErrContentBlocked)
	case resp.Candidates[0].Content == nil:
		return "", fmt.Errorf("%w: empty content in response", analysis.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", analysis.ErrEmptyResponse
	}
	return text.String(), nil
}

// backoff returns retryDelay * 2^attempt scaled by a jitter in [0.5, 1.0).
func (s *Scorer) backoff(attempt int) time.Duration {
	s.rngMu.Lock()
	jitter := 0.5 + s.rng.Float64()*0.5
	s.rngMu.Unlock()

	return time.Duration(float64(s.retryDelay) * math.Pow(2, float64(attempt)) * jitter)
}

// isTransient reports whether an API error may succeed when repeated.
// Errors without an HTTP status, such as network failures, count as transient.
func isTransient(err error) bool {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	default:
		return true
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
