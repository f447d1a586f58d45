// Package llm provides the fallback semantic classifiers used when no keyword
// rule matches. Providers rank a fixed set of candidate labels for a piece of
// text: OpenAI and Anthropic chat models, and Hugging Face zero-shot models.
// Calls are rate limited and guarded by a circuit breaker; they are never retried.
package llm
