package evaluation

import (
	"context"
	"sort"

	"contact-autoclose/pkg/models"
)

// Detector is the detection capability under evaluation.
type Detector interface {
	DetectDetailed(ctx context.Context, message string) models.DetectionResult
	SetThreshold(value float64)
	Threshold() float64
}

// ConfusionMatrix tallies binary detection outcomes. Derived metrics guard
// empty denominators by returning 0 rather than NaN.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

func (m ConfusionMatrix) Total() int {
	return m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
}

func (m ConfusionMatrix) Precision() float64 {
	denom := m.TruePositives + m.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(m.TruePositives) / float64(denom)
}

func (m ConfusionMatrix) Recall() float64 {
	denom := m.TruePositives + m.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(m.TruePositives) / float64(denom)
}

func (m ConfusionMatrix) F1() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (m ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.TruePositives+m.TrueNegatives) / float64(total)
}

// Failure records one misclassified sample with its detection detail.
type Failure struct {
	Sample    Sample
	Predicted bool
	Detail    models.DetectionResult
}

// Report is the outcome of evaluating a detector against a labeled set.
type Report struct {
	Threshold        float64
	Matrix           ConfusionMatrix
	CategoryAccuracy map[string]float64
	Failures         []Failure
}

// Evaluate runs the detector over every sample and accumulates the
// confusion matrix plus a per-category accuracy breakdown.
func Evaluate(ctx context.Context, det Detector, samples []Sample) Report {
	report := Report{
		Threshold:        det.Threshold(),
		CategoryAccuracy: make(map[string]float64),
	}

	categoryTotals := make(map[string]int)
	categoryCorrect := make(map[string]int)

	for _, sample := range samples {
		detail := det.DetectDetailed(ctx, sample.Message)
		predicted := detail.IsClosure

		switch {
		case predicted && sample.Expected:
			report.Matrix.TruePositives++
		case !predicted && !sample.Expected:
			report.Matrix.TrueNegatives++
		case predicted && !sample.Expected:
			report.Matrix.FalsePositives++
		default:
			report.Matrix.FalseNegatives++
		}

		categoryTotals[sample.Category]++
		if predicted == sample.Expected {
			categoryCorrect[sample.Category]++
		} else {
			report.Failures = append(report.Failures, Failure{
				Sample:    sample,
				Predicted: predicted,
				Detail:    detail,
			})
		}
	}

	for category, total := range categoryTotals {
		report.CategoryAccuracy[category] = float64(categoryCorrect[category]) / float64(total)
	}

	return report
}

// Sweep evaluates the detector at each threshold in turn. The detector's
// threshold is left at the final swept value; the caller resets it.
// Embeddings are cached by text, so only the first pass pays remote calls.
func Sweep(ctx context.Context, det Detector, samples []Sample, thresholds []float64) []Report {
	reports := make([]Report, 0, len(thresholds))
	for _, threshold := range thresholds {
		det.SetThreshold(threshold)
		reports = append(reports, Evaluate(ctx, det, samples))
	}
	return reports
}

// Best returns the report with the highest F1 score, ties broken by
// accuracy and then by lower threshold.
func Best(reports []Report) (Report, bool) {
	if len(reports) == 0 {
		return Report{}, false
	}
	sorted := append([]Report(nil), reports...)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Matrix.F1() != sorted[b].Matrix.F1() {
			return sorted[a].Matrix.F1() > sorted[b].Matrix.F1()
		}
		if sorted[a].Matrix.Accuracy() != sorted[b].Matrix.Accuracy() {
			return sorted[a].Matrix.Accuracy() > sorted[b].Matrix.Accuracy()
		}
		return sorted[a].Threshold < sorted[b].Threshold
	})
	return sorted[0], true
}
