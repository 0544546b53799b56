package llm

import (
	"os"

	"go.uber.org/zap"
)

const (
	// EnvRelayMode is the environment variable name for mode selection.
	EnvRelayMode = "RELAY_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewModelClient creates a model client based on the RELAY_MODE environment
// variable. RELAY_MODE=MOCK returns a MockClient; otherwise a real client.
func NewModelClient(apiKey, baseURL, model string, temperature float64, logger *zap.Logger) ModelClient {
	if os.Getenv(EnvRelayMode) == ModeMock {
		logger.Info("RELAY_MODE=MOCK detected, using mock model client")
		return NewMockClient()
	}
	return NewOpenAIClient(apiKey, baseURL, model, temperature)
}
