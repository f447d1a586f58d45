package llm

import (
	"fmt"
	"strings"
)

// Provider names accepted by NewClient.
const (
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderHuggingFace = "huggingface"
	ProviderNone        = "none"
)

// NewClient creates a raw provider client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderHuggingFace, "hf", "zeroshot":
		return newHuggingFaceClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported fallback provider: %s", cfg.Provider)
	}
}
