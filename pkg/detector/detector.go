package detector

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/constants"
	"contact-autoclose/pkg/metrics"
	"contact-autoclose/pkg/models"
	"contact-autoclose/pkg/similarity"
)

// Embedder is the embedding capability the detector depends on.
// *embedding.Gateway satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type initState int

const (
	stateUninitialized initState = iota
	stateInitializing
	stateReady
)

// initAttempt lets concurrent callers await one in-flight reference
// embedding pass instead of re-triggering it. A failed attempt is shared
// by its waiters and cleared so a later call can retry.
type initAttempt struct {
	done chan struct{}
	err  error
}

// Detector decides whether an agent message is a closure statement by
// comparing its embedding against a reference example set. The threshold is
// held per instance so independent evaluation runs do not interfere.
type Detector struct {
	embedder Embedder
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	threshold  float64
	examples   []string
	vectors    [][]float64
	state      initState
	attempt    *initAttempt
	generation int
}

func New(embedder Embedder, threshold float64, logger *logrus.Logger, m *metrics.Metrics) *Detector {
	if threshold < 0 || threshold > 1 {
		threshold = constants.DefaultSimilarityThreshold
	}
	return &Detector{
		embedder:  embedder,
		logger:    logger,
		metrics:   m,
		threshold: threshold,
		examples:  append([]string(nil), DefaultClosureExamples...),
	}
}

// Threshold returns the current similarity cutoff.
func (d *Detector) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold
}

// SetThreshold updates the similarity cutoff. Values outside [0,1] are
// silently ignored; threshold sweeps rely on that.
func (d *Detector) SetThreshold(value float64) {
	if value < 0 || value > 1 {
		return
	}
	d.mu.Lock()
	d.threshold = value
	d.mu.Unlock()
}

// Examples returns a copy of the current reference example set.
func (d *Detector) Examples() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.examples...)
}

// AddReferenceExample appends a reference sentence and invalidates the
// cached embeddings so the next detection re-embeds the whole set.
func (d *Detector) AddReferenceExample(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.examples = append(d.examples, trimmed)
	d.generation++
	if d.state == stateReady {
		d.state = stateUninitialized
		d.vectors = nil
	}
}

// InitializeReferences embeds every reference example exactly once.
// Idempotent; all-or-nothing. Concurrent callers share one in-flight pass.
func (d *Detector) InitializeReferences(ctx context.Context) error {
	d.mu.Lock()

	switch d.state {
	case stateReady:
		d.mu.Unlock()
		return nil

	case stateInitializing:
		attempt := d.attempt
		d.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	attempt := &initAttempt{done: make(chan struct{})}
	d.state = stateInitializing
	d.attempt = attempt
	examples := append([]string(nil), d.examples...)
	generation := d.generation
	d.mu.Unlock()

	vectors := make([][]float64, len(examples))
	var initErr error
	for i, example := range examples {
		vector, err := d.embedder.Embed(ctx, example)
		if err != nil {
			initErr = err
			break
		}
		vectors[i] = vector
	}

	d.mu.Lock()
	if initErr != nil {
		d.state = stateUninitialized
		d.logger.WithError(initErr).Error("Failed to initialize closure reference embeddings")
	} else if d.generation != generation {
		// The example set changed mid-pass; drop the stale vectors and
		// let the next call re-embed.
		d.state = stateUninitialized
	} else {
		d.vectors = vectors
		d.state = stateReady
		d.logger.WithField("examples", len(examples)).Debug("Closure reference embeddings initialized")
	}
	d.attempt = nil
	attempt.err = initErr
	close(attempt.done)
	d.mu.Unlock()

	return initErr
}

// Detect reports whether message is a closure statement.
func (d *Detector) Detect(ctx context.Context, message string) bool {
	return d.DetectDetailed(ctx, message).IsClosure
}

// DetectDetailed runs closure detection and returns the full result,
// including the best and top-3 reference matches. It never fails: on any
// embedding error it degrades to keyword matching.
func (d *Detector) DetectDetailed(ctx context.Context, message string) models.DetectionResult {
	start := time.Now()
	defer func() {
		d.metrics.DetectionDuration.Observe(time.Since(start).Seconds())
	}()

	threshold := d.Threshold()
	trimmed := strings.TrimSpace(message)

	// Too short to carry closure semantics; skip the embedding round trip.
	if len(trimmed) < constants.MinDetectableLength {
		d.metrics.ClosureDetections.WithLabelValues("rejected_short").Inc()
		return models.DetectionResult{IsClosure: false, Threshold: threshold}
	}

	if err := d.InitializeReferences(ctx); err != nil {
		return d.fallback(trimmed, threshold)
	}

	messageVector, err := d.embedder.Embed(ctx, trimmed)
	if err != nil {
		return d.fallback(trimmed, threshold)
	}

	d.mu.Lock()
	examples := d.examples
	vectors := d.vectors
	d.mu.Unlock()

	var maxSimilarity float64
	var bestMatch string
	matches := make([]models.DetectionMatch, 0, len(vectors))

	for i, refVector := range vectors {
		score, err := similarity.Cosine(messageVector, refVector)
		if err != nil {
			// Mixed dimensions mean the provider changed mid-session.
			d.logger.WithError(err).WithField("example", examples[i]).Error("Similarity comparison failed")
			return d.fallback(trimmed, threshold)
		}

		matches = append(matches, models.DetectionMatch{Example: examples[i], Score: score})

		// Strict comparison keeps the first reference on a tie.
		if score > maxSimilarity {
			maxSimilarity = score
			bestMatch = examples[i]
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > 3 {
		matches = matches[:3]
	}

	isClosure := maxSimilarity >= threshold

	if isClosure {
		d.metrics.ClosureDetections.WithLabelValues("closure").Inc()
	} else {
		d.metrics.ClosureDetections.WithLabelValues("not_closure").Inc()
	}

	d.logger.WithFields(logrus.Fields{
		"is_closure":     isClosure,
		"max_similarity": maxSimilarity,
		"best_match":     bestMatch,
		"threshold":      threshold,
	}).Debug("Closure detection completed")

	return models.DetectionResult{
		IsClosure:     isClosure,
		MaxSimilarity: maxSimilarity,
		BestMatch:     bestMatch,
		TopMatches:    matches,
		Threshold:     threshold,
	}
}

// fallback is the last line of defense when embeddings are unavailable.
// Keyword containment trades recall for availability and never fails.
func (d *Detector) fallback(message string, threshold float64) models.DetectionResult {
	lower := strings.ToLower(message)
	for _, keyword := range fallbackKeywords {
		if strings.Contains(lower, keyword) {
			d.metrics.ClosureDetections.WithLabelValues("fallback_closure").Inc()
			d.logger.WithField("keyword", keyword).Debug("Keyword fallback matched closure")
			return models.DetectionResult{IsClosure: true, Threshold: threshold, Fallback: true}
		}
	}
	d.metrics.ClosureDetections.WithLabelValues("fallback_not_closure").Inc()
	return models.DetectionResult{IsClosure: false, Threshold: threshold, Fallback: true}
}
