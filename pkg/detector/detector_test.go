package detector

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-autoclose/pkg/embedding"
	"contact-autoclose/pkg/metrics"
)

const testDimension = 64

// fakeEmbedder hands out one-hot vectors so distinct texts are orthogonal
// (similarity 0) unless an override makes them deliberately close.
type fakeEmbedder struct {
	mu        sync.Mutex
	fail      bool
	next      int
	assigned  map[string][]float64
	overrides map[string][]float64
	calls     map[string]int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		assigned:  make(map[string][]float64),
		overrides: make(map[string][]float64),
		calls:     make(map[string]int),
	}
}

func (f *fakeEmbedder) override(text string, vector []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[text] = vector
}

func (f *fakeEmbedder) callCount(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

func (f *fakeEmbedder) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[text]++
	if f.fail {
		return nil, embedding.ErrUnavailable
	}
	if vector, ok := f.overrides[text]; ok {
		return vector, nil
	}
	if vector, ok := f.assigned[text]; ok {
		return vector, nil
	}

	// Dims 0 and 1 are reserved for axis() overrides; auto-assigned
	// vectors start at dim 10 so they stay orthogonal to them.
	vector := make([]float64, testDimension)
	vector[(10+f.next)%testDimension] = 1
	f.next++
	f.assigned[text] = vector
	return vector, nil
}

// axis returns a vector with the given weights on the first two dimensions.
func axis(x, y float64) []float64 {
	vector := make([]float64, testDimension)
	vector[0] = x
	vector[1] = y
	return vector
}

func newTestDetector(t *testing.T, embedder Embedder, threshold float64) *Detector {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	return New(embedder, threshold, logger, m)
}

func TestDetector_DetectsParaphrasedClosure(t *testing.T) {
	embedder := newFakeEmbedder()
	reference := "Is there anything else I can help you with?"
	message := "Is there anything else I can help you with today?"

	embedder.override(reference, axis(1, 0))
	embedder.override(message, axis(0.95, 0.3))

	det := newTestDetector(t, embedder, 0.55)

	result := det.DetectDetailed(context.Background(), message)
	assert.True(t, result.IsClosure)
	assert.Equal(t, reference, result.BestMatch)
	assert.GreaterOrEqual(t, result.MaxSimilarity, 0.55)
	assert.Equal(t, 0.55, result.Threshold)
	assert.Len(t, result.TopMatches, 3)
	assert.Equal(t, reference, result.TopMatches[0].Example)
}

func TestDetector_RejectsUnrelatedMessage(t *testing.T) {
	embedder := newFakeEmbedder()
	det := newTestDetector(t, embedder, 0.55)

	// One-hot vectors make this orthogonal to every reference
	result := det.DetectDetailed(context.Background(), "Let me check that for you")
	assert.False(t, result.IsClosure)
	assert.False(t, result.Fallback)
}

func TestDetector_ShortMessageSkipsEmbedding(t *testing.T) {
	embedder := newFakeEmbedder()
	det := newTestDetector(t, embedder, 0.55)

	assert.False(t, det.Detect(context.Background(), "ok"))
	assert.False(t, det.Detect(context.Background(), "  hi  "))
	assert.Equal(t, 0, embedder.totalCalls())
}

func TestDetector_ThresholdMonotonicity(t *testing.T) {
	embedder := newFakeEmbedder()
	reference := "Have a great day"
	message := "Have yourself a great day!"

	embedder.override(reference, axis(1, 0))
	embedder.override(message, axis(0.9, 0.4))

	det := newTestDetector(t, embedder, 0.55)
	ctx := context.Background()

	require.True(t, det.Detect(ctx, message))

	// Raising the threshold can only flip true to false, never the reverse
	wasClosure := true
	for _, threshold := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 0.99} {
		det.SetThreshold(threshold)
		isClosure := det.Detect(ctx, message)
		if !wasClosure {
			assert.False(t, isClosure, "detection flipped back to true at threshold %v", threshold)
		}
		wasClosure = isClosure
	}
	assert.False(t, wasClosure)
}

func TestDetector_SetThresholdClamping(t *testing.T) {
	det := newTestDetector(t, newFakeEmbedder(), 0.55)

	det.SetThreshold(1.5)
	assert.Equal(t, 0.55, det.Threshold())

	det.SetThreshold(-0.1)
	assert.Equal(t, 0.55, det.Threshold())

	det.SetThreshold(0.8)
	assert.Equal(t, 0.8, det.Threshold())
}

func TestDetector_ConcurrentInitEmbedsEachReferenceOnce(t *testing.T) {
	embedder := newFakeEmbedder()
	det := newTestDetector(t, embedder, 0.55)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, det.InitializeReferences(context.Background()))
		}()
	}
	wg.Wait()

	for _, example := range det.Examples() {
		assert.Equal(t, 1, embedder.callCount(example), "example %q embedded more than once", example)
	}
}

func TestDetector_InitFailureAllowsRetry(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.fail = true
	det := newTestDetector(t, embedder, 0.55)

	err := det.InitializeReferences(context.Background())
	require.ErrorIs(t, err, embedding.ErrUnavailable)

	// All-or-nothing: recovery re-runs the full pass
	embedder.fail = false
	require.NoError(t, det.InitializeReferences(context.Background()))
	require.NoError(t, det.InitializeReferences(context.Background()))
}

func TestDetector_FallbackOnEmbeddingFailure(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.fail = true
	det := newTestDetector(t, embedder, 0.55)

	ctx := context.Background()

	result := det.DetectDetailed(ctx, "Have a great day!")
	assert.True(t, result.IsClosure)
	assert.True(t, result.Fallback)
	assert.Zero(t, result.MaxSimilarity)

	result = det.DetectDetailed(ctx, "My printer is on fire")
	assert.False(t, result.IsClosure)
	assert.True(t, result.Fallback)
}

func TestDetector_AddReferenceExampleInvalidates(t *testing.T) {
	embedder := newFakeEmbedder()
	det := newTestDetector(t, embedder, 0.55)
	ctx := context.Background()

	require.NoError(t, det.InitializeReferences(ctx))
	firstPass := embedder.totalCalls()

	det.AddReferenceExample("It was a pleasure assisting you")
	require.NoError(t, det.InitializeReferences(ctx))

	assert.Equal(t, 1, embedder.callCount("It was a pleasure assisting you"))
	// Everything is re-embedded, not just the new example
	assert.Equal(t, firstPass*2+1, embedder.totalCalls())

	det.AddReferenceExample("   ")
	assert.NotContains(t, det.Examples(), "")
}

func TestDetector_TieBreaksByReferenceOrder(t *testing.T) {
	embedder := newFakeEmbedder()
	examples := DefaultClosureExamples
	shared := axis(1, 0)

	// Two references with identical vectors; the earlier one must win
	embedder.override(examples[1], shared)
	embedder.override(examples[5], shared)
	message := "Anything else at all I can do for you?"
	embedder.override(message, shared)

	det := newTestDetector(t, embedder, 0.55)

	result := det.DetectDetailed(context.Background(), message)
	require.True(t, result.IsClosure)
	assert.Equal(t, examples[1], result.BestMatch)
	assert.Equal(t, examples[1], result.TopMatches[0].Example)
	assert.Equal(t, examples[5], result.TopMatches[1].Example)
}
