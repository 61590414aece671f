package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/config"
)

// NewGenerator creates the configured provider client wrapped in a circuit
// breaker. Returns nil, nil when ranking is disabled or no key is configured;
// callers treat a nil Generator as "ranking skipped".
func NewGenerator(cfg config.RankingConfig, logger *zap.Logger) (Generator, error) {
	if !cfg.IsAvailable() {
		logger.Info("College ranking disabled",
			zap.Bool("enabled", cfg.Enabled),
			zap.String("provider", cfg.Provider))
		return nil, nil
	}

	clientCfg := &Config{
		BaseURL:   cfg.BaseURL,
		Model:     cfg.ModelName(),
		APIKey:    cfg.APIKey(),
		MaxTokens: cfg.MaxTokens,
	}

	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case config.ProviderAnthropic:
		gen, err = NewAnthropicClient(clientCfg, logger)
	case config.ProviderOpenAI:
		gen, err = NewOpenAIClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown ranking provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return NewBreakerGenerator(gen, BreakerConfig{
		Failures: cfg.BreakerFailures,
		Timeout:  cfg.BreakerTimeout,
	}, logger), nil
}
