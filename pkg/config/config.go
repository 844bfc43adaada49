package config

import (
	"os"
	"strconv"
	"time"

	"contact-autoclose/pkg/constants"
)

type Config struct {
	OpenAIAPIKey       string
	EmbeddingModel     string
	CompletionModel    string
	EmbeddingEndpoint  string
	CompletionEndpoint string

	SimilarityThreshold float64

	StandardCloseMS  int64
	FastCloseMS      int64
	FastCloseFloorMS int64
	IdleNudgeMS      int64
	TypingDebounceMS int64
	TickMS           int64

	EmbedCacheMode string
	RedisURL       string

	Port     string
	LogLevel string
}

func Load() *Config {
	config := &Config{
		OpenAIAPIKey:       getEnv(constants.EnvOpenAIAPIKey, ""),
		EmbeddingModel:     getEnv(constants.EnvEmbeddingModel, constants.DefaultEmbeddingModel),
		CompletionModel:    getEnv(constants.EnvCompletionModel, constants.DefaultCompletionModel),
		EmbeddingEndpoint:  getEnv("EMBEDDING_ENDPOINT", constants.DefaultEmbeddingEndpoint),
		CompletionEndpoint: getEnv("COMPLETION_ENDPOINT", constants.DefaultCompletionEndpoint),

		SimilarityThreshold: getEnvFloat(constants.EnvSimilarityThreshold, constants.DefaultSimilarityThreshold),

		StandardCloseMS:  getEnvInt64(constants.EnvStandardCloseMS, constants.DefaultStandardCloseMS),
		FastCloseMS:      getEnvInt64(constants.EnvFastCloseMS, constants.DefaultFastCloseMS),
		FastCloseFloorMS: getEnvInt64("FAST_CLOSE_FLOOR_MS", constants.DefaultFastCloseFloorMS),
		IdleNudgeMS:      getEnvInt64(constants.EnvIdleNudgeMS, constants.DefaultIdleNudgeMS),
		TypingDebounceMS: getEnvInt64(constants.EnvTypingDebounceMS, constants.DefaultTypingDebounceMS),
		TickMS:           getEnvInt64("TICK_MS", constants.DefaultTickMS),

		EmbedCacheMode: getEnv(constants.EnvEmbedCacheMode, "memory"),
		RedisURL:       getEnv(constants.EnvRedisURL, "redis://localhost:6379"),

		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

func (c *Config) StandardClose() time.Duration {
	return time.Duration(c.StandardCloseMS) * time.Millisecond
}

func (c *Config) FastClose() time.Duration {
	return time.Duration(c.FastCloseMS) * time.Millisecond
}

func (c *Config) FastCloseFloor() time.Duration {
	return time.Duration(c.FastCloseFloorMS) * time.Millisecond
}

func (c *Config) IdleNudge() time.Duration {
	return time.Duration(c.IdleNudgeMS) * time.Millisecond
}

func (c *Config) TypingDebounce() time.Duration {
	return time.Duration(c.TypingDebounceMS) * time.Millisecond
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
