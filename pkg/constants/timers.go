package constants

import "time"

// Default countdown configuration values (milliseconds)
const (
	// DefaultStandardCloseMS - countdown started when a closure statement is detected
	DefaultStandardCloseMS = 60000

	// DefaultFastCloseMS - shortened countdown applied when the customer is satisfied
	DefaultFastCloseMS = 15000

	// DefaultFastCloseFloorMS - fast close is refused when remaining time is at or below this
	DefaultFastCloseFloorMS = 15000

	// DefaultIdleNudgeMS - agent inactivity before a synthetic "Are you there?" is injected
	DefaultIdleNudgeMS = 45000

	// DefaultTypingDebounceMS - keystroke silence before the countdown resumes
	DefaultTypingDebounceMS = 1000

	// DefaultTickMS - countdown evaluation interval
	DefaultTickMS = 100
)

// Detection defaults
const (
	// DefaultSimilarityThreshold - cosine similarity cutoff for closure detection.
	// 0.55 scored best on the labeled dataset (96.2% accuracy, 100% recall);
	// the legacy 0.65 value is available via SIMILARITY_THRESHOLD.
	DefaultSimilarityThreshold = 0.55

	// MinDetectableLength - trimmed messages shorter than this are never closures
	MinDetectableLength = 5
)

// Remote model defaults
const (
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultCompletionModel = "gpt-4o-mini"

	DefaultEmbeddingEndpoint  = "https://api.openai.com/v1/embeddings"
	DefaultCompletionEndpoint = "https://api.openai.com/v1/chat/completions"

	// Classification asks for a single label token
	ClassificationTemperature = 0.3
	ClassificationMaxTokens   = 10
)

// NudgeMessage is the synthetic customer message injected on agent inactivity
const NudgeMessage = "Are you there?"

// Redis key prefix for the optional embedding cache tier
const EmbeddingCacheKeyPrefix = "embedding:"

// Configuration environment variable names
const (
	EnvStandardCloseMS     = "STANDARD_CLOSE_MS"
	EnvFastCloseMS         = "FAST_CLOSE_MS"
	EnvIdleNudgeMS         = "IDLE_NUDGE_MS"
	EnvTypingDebounceMS    = "TYPING_DEBOUNCE_MS"
	EnvSimilarityThreshold = "SIMILARITY_THRESHOLD"
	EnvOpenAIAPIKey        = "OPENAI_API_KEY"
	EnvEmbeddingModel      = "EMBEDDING_MODEL"
	EnvCompletionModel     = "COMPLETION_MODEL"
	EnvEmbedCacheMode      = "EMBED_CACHE"
	EnvRedisURL            = "REDIS_URL"
)

// Helper functions for time conversions
func MillisecondsToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
