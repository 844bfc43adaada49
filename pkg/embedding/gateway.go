package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"contact-autoclose/pkg/metrics"
)

// Store is an optional second cache tier behind the in-process map.
// Lookup misses return (nil, false, nil); store failures are non-fatal.
type Store interface {
	Lookup(ctx context.Context, text string) ([]float64, bool, error)
	Save(ctx context.Context, text string, vector []float64) error
}

// Gateway memoizes embeddings by exact text for the process lifetime.
// Concurrent requests for the same uncached text are coalesced into a
// single remote call. The cache is append-only and never evicted; the
// service handles one bounded demo session at a time.
type Gateway struct {
	provider Provider
	store    Store
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	cache map[string][]float64
	group singleflight.Group
}

func NewGateway(provider Provider, store Store, logger *logrus.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		provider: provider,
		store:    store,
		logger:   logger,
		metrics:  m,
		cache:    make(map[string][]float64),
	}
}

// Embed returns the embedding vector for text, from cache when available.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float64, error) {
	g.mu.RLock()
	vector, ok := g.cache[text]
	g.mu.RUnlock()
	if ok {
		g.metrics.EmbeddingCacheHits.Inc()
		return vector, nil
	}

	g.metrics.EmbeddingCacheMisses.Inc()

	result, err, _ := g.group.Do(text, func() (interface{}, error) {
		// Re-check under the coalescing group; another caller may have
		// populated the cache while this one waited.
		g.mu.RLock()
		cached, ok := g.cache[text]
		g.mu.RUnlock()
		if ok {
			return cached, nil
		}

		if g.store != nil {
			if stored, found, err := g.store.Lookup(ctx, text); err != nil {
				g.logger.WithError(err).Debug("Embedding store lookup failed")
			} else if found {
				g.remember(text, stored)
				return stored, nil
			}
		}

		start := time.Now()
		vec, err := g.provider.Embed(ctx, text)
		g.metrics.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			g.logger.WithError(err).WithField("text_length", len(text)).Warn("Remote embedding request failed")
			return nil, err
		}

		g.remember(text, vec)

		if g.store != nil {
			if err := g.store.Save(ctx, text, vec); err != nil {
				g.logger.WithError(err).Debug("Embedding store save failed")
			}
		}

		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]float64), nil
}

// CacheSize returns the number of distinct texts embedded so far.
func (g *Gateway) CacheSize() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cache)
}

func (g *Gateway) remember(text string, vector []float64) {
	g.mu.Lock()
	g.cache[text] = vector
	g.mu.Unlock()
}
