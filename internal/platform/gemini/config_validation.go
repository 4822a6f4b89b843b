package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/sleepwatch/internal/analysis"
	"github.com/phrazzld/sleepwatch/internal/config"
)

// validateConfig checks the settings a Scorer cannot work without. Retry
// settings that are out of range are tolerated and replaced by defaults.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.ErrorContext(ctx, "Missing Gemini API key",
			"error", "GeminiAPIKey is empty")
		return fmt.Errorf("%w: gemini API key cannot be empty", analysis.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		logger.ErrorContext(ctx, "Missing model name",
			"error", "ModelName is empty")
		return fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}

	if cfg.MaxRetries < 0 {
		logger.WarnContext(ctx, "Invalid MaxRetries value",
			"value", cfg.MaxRetries,
			"action", "using default value")
	}

	if cfg.RetryDelayMS <= 0 {
		logger.WarnContext(ctx, "Invalid RetryDelayMS value",
			"value", cfg.RetryDelayMS,
			"action", "using default value")
	}

	return nil
}
