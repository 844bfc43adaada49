package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-autoclose/pkg/models"
)

// scoreDetector assigns each message a fixed similarity score and applies
// the usual threshold comparison, with no embedding round trips.
type scoreDetector struct {
	scores    map[string]float64
	threshold float64
}

func (d *scoreDetector) DetectDetailed(ctx context.Context, message string) models.DetectionResult {
	score := d.scores[message]
	return models.DetectionResult{
		IsClosure:     score >= d.threshold,
		MaxSimilarity: score,
		Threshold:     d.threshold,
	}
}

func (d *scoreDetector) SetThreshold(value float64) { d.threshold = value }
func (d *scoreDetector) Threshold() float64         { return d.threshold }

func scoredSamples() ([]Sample, *scoreDetector) {
	samples := []Sample{
		{Message: "Is there anything else I can help you with?", Expected: true, Category: "direct_closure"},
		{Message: "Have a wonderful day!", Expected: true, Category: "farewell_closure"},
		{Message: "Glad I could sort that out for you.", Expected: true, Category: "gratitude_closure"},
		{Message: "Let me look into that for you.", Expected: false, Category: "problem_solving"},
		{Message: "Can you share your order number?", Expected: false, Category: "information_request"},
		{Message: "Thanks for waiting.", Expected: false, Category: "acknowledgment"},
	}
	det := &scoreDetector{
		threshold: 0.55,
		scores: map[string]float64{
			samples[0].Message: 0.92,
			samples[1].Message: 0.74,
			samples[2].Message: 0.50, // closure scoring below the default cut
			samples[3].Message: 0.31,
			samples[4].Message: 0.22,
			samples[5].Message: 0.61, // non-closure scoring above the cut
		},
	}
	return samples, det
}

func TestEvaluate_ConfusionMatrix(t *testing.T) {
	samples, det := scoredSamples()

	report := Evaluate(context.Background(), det, samples)

	assert.Equal(t, 0.55, report.Threshold)
	assert.Equal(t, 2, report.Matrix.TruePositives)
	assert.Equal(t, 2, report.Matrix.TrueNegatives)
	assert.Equal(t, 1, report.Matrix.FalsePositives)
	assert.Equal(t, 1, report.Matrix.FalseNegatives)
	assert.Equal(t, len(samples), report.Matrix.Total())
}

func TestEvaluate_Failures(t *testing.T) {
	samples, det := scoredSamples()

	report := Evaluate(context.Background(), det, samples)

	require.Len(t, report.Failures, 2)
	for _, failure := range report.Failures {
		assert.NotEqual(t, failure.Sample.Expected, failure.Predicted)
	}
}

func TestEvaluate_CategoryAccuracy(t *testing.T) {
	samples, det := scoredSamples()

	report := Evaluate(context.Background(), det, samples)

	assert.Equal(t, 1.0, report.CategoryAccuracy["direct_closure"])
	assert.Equal(t, 1.0, report.CategoryAccuracy["farewell_closure"])
	assert.Equal(t, 0.0, report.CategoryAccuracy["gratitude_closure"])
	assert.Equal(t, 0.0, report.CategoryAccuracy["acknowledgment"])
	assert.Equal(t, 1.0, report.CategoryAccuracy["problem_solving"])
}

func TestConfusionMatrix_Metrics(t *testing.T) {
	m := ConfusionMatrix{TruePositives: 8, TrueNegatives: 6, FalsePositives: 2, FalseNegatives: 4}

	assert.InDelta(t, 0.8, m.Precision(), 1e-9)
	assert.InDelta(t, 8.0/12.0, m.Recall(), 1e-9)
	assert.InDelta(t, 0.7, m.Accuracy(), 1e-9)

	p, r := m.Precision(), m.Recall()
	assert.InDelta(t, 2*p*r/(p+r), m.F1(), 1e-9)
}

func TestConfusionMatrix_EmptyDenominators(t *testing.T) {
	var empty ConfusionMatrix
	assert.Equal(t, 0.0, empty.Precision())
	assert.Equal(t, 0.0, empty.Recall())
	assert.Equal(t, 0.0, empty.F1())
	assert.Equal(t, 0.0, empty.Accuracy())

	// All-negative predictions: precision undefined, recall well-defined
	allMissed := ConfusionMatrix{TrueNegatives: 3, FalseNegatives: 2}
	assert.Equal(t, 0.0, allMissed.Precision())
	assert.Equal(t, 0.0, allMissed.Recall())
	assert.Equal(t, 0.6, allMissed.Accuracy())
}

func TestSweep_AppliesEachThreshold(t *testing.T) {
	samples, det := scoredSamples()
	thresholds := []float64{0.25, 0.55, 0.80}

	reports := Sweep(context.Background(), det, samples, thresholds)

	require.Len(t, reports, len(thresholds))
	for i, report := range reports {
		assert.Equal(t, thresholds[i], report.Threshold)
	}

	// Raising the threshold trims positives monotonically
	assert.Equal(t, 6, reports[0].Matrix.TruePositives+reports[0].Matrix.FalsePositives)
	assert.Equal(t, 3, reports[1].Matrix.TruePositives+reports[1].Matrix.FalsePositives)
	assert.Equal(t, 1, reports[2].Matrix.TruePositives+reports[2].Matrix.FalsePositives)

	// Sweep leaves the last threshold in place
	assert.Equal(t, 0.80, det.Threshold())
}

func TestBest_PrefersF1ThenAccuracyThenLowerThreshold(t *testing.T) {
	samples, det := scoredSamples()

	reports := Sweep(context.Background(), det, samples, []float64{0.25, 0.45, 0.60, 0.80, 0.95})
	best, ok := Best(reports)
	require.True(t, ok)

	for _, report := range reports {
		assert.GreaterOrEqual(t, best.Matrix.F1(), report.Matrix.F1())
	}

	// Ties on both F1 and accuracy resolve to the lower threshold
	tied := []Report{
		{Threshold: 0.70, Matrix: ConfusionMatrix{TruePositives: 3, TrueNegatives: 3}},
		{Threshold: 0.60, Matrix: ConfusionMatrix{TruePositives: 3, TrueNegatives: 3}},
	}
	best, ok = Best(tied)
	require.True(t, ok)
	assert.Equal(t, 0.60, best.Threshold)

	_, ok = Best(nil)
	assert.False(t, ok)
}

func TestClosureDataset_Shape(t *testing.T) {
	stats := Stats(ClosureDataset)
	assert.Greater(t, stats.Positives, 0)
	assert.Greater(t, stats.Negatives, 0)
	assert.Equal(t, len(ClosureDataset), stats.Total)
	assert.Equal(t, stats.Total, stats.Positives+stats.Negatives)
	assert.Contains(t, stats.Categories, "direct_closure")
	assert.Contains(t, stats.Categories, "edge_case_false_positive")

	direct := ByCategory(ClosureDataset, "direct_closure")
	require.NotEmpty(t, direct)
	for _, sample := range direct {
		assert.True(t, sample.Expected)
	}
}
