package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/classifier"
	"contact-autoclose/pkg/config"
	"contact-autoclose/pkg/constants"
	"contact-autoclose/pkg/detector"
	"contact-autoclose/pkg/embedding"
	"contact-autoclose/pkg/evaluation"
	"contact-autoclose/pkg/metrics"
	"contact-autoclose/pkg/models"
)

func main() {
	sweep := flag.Bool("sweep", false, "sweep thresholds 0.55-0.80 instead of a single evaluation")
	classify := flag.Bool("classify", false, "also run sample intent classifications")
	flag.Parse()

	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	if cfg.OpenAIAPIKey == "" {
		fmt.Fprintf(os.Stderr, "%s must be set to run the accuracy harness\n", constants.EnvOpenAIAPIKey)
		os.Exit(1)
	}

	m := metrics.NewMetrics()
	provider := embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingEndpoint)
	gateway := embedding.NewGateway(provider, nil, logger, m)
	det := detector.New(gateway, cfg.SimilarityThreshold, logger, m)

	ctx := context.Background()
	samples := evaluation.ClosureDataset

	stats := evaluation.Stats(samples)
	fmt.Printf("Dataset: %d samples (%d closure, %d non-closure)\n\n", stats.Total, stats.Positives, stats.Negatives)

	if *sweep {
		thresholds := []float64{0.55, 0.60, 0.65, 0.70, 0.75, 0.80}
		reports := evaluation.Sweep(ctx, det, samples, thresholds)

		fmt.Printf("%-10s %-10s %-10s %-10s %-10s\n", "threshold", "accuracy", "precision", "recall", "f1")
		for _, report := range reports {
			printRow(report)
		}

		if best, ok := evaluation.Best(reports); ok {
			fmt.Printf("\nBest threshold by F1: %.2f\n", best.Threshold)
		}
		return
	}

	report := evaluation.Evaluate(ctx, det, samples)

	fmt.Printf("%-10s %-10s %-10s %-10s %-10s\n", "threshold", "accuracy", "precision", "recall", "f1")
	printRow(report)

	fmt.Printf("\nConfusion matrix: TP=%d TN=%d FP=%d FN=%d\n",
		report.Matrix.TruePositives, report.Matrix.TrueNegatives,
		report.Matrix.FalsePositives, report.Matrix.FalseNegatives)

	fmt.Println("\nPer-category accuracy:")
	categories := make([]string, 0, len(report.CategoryAccuracy))
	for category := range report.CategoryAccuracy {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Printf("  %-28s %.1f%%\n", category, report.CategoryAccuracy[category]*100)
	}

	if len(report.Failures) > 0 {
		fmt.Printf("\nFailures (%d):\n", len(report.Failures))
		for _, failure := range report.Failures {
			fmt.Printf("  %q expected=%v got=%v max_similarity=%.3f best=%q\n",
				failure.Sample.Message, failure.Sample.Expected, failure.Predicted,
				failure.Detail.MaxSimilarity, failure.Detail.BestMatch)
		}
	}

	if *classify {
		runClassificationSamples(ctx, cfg, logger, m)
	}
}

func printRow(report evaluation.Report) {
	fmt.Printf("%-10.2f %-10.4f %-10.4f %-10.4f %-10.4f\n",
		report.Threshold, report.Matrix.Accuracy(), report.Matrix.Precision(),
		report.Matrix.Recall(), report.Matrix.F1())
}

func runClassificationSamples(ctx context.Context, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) {
	completer := classifier.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.CompletionEndpoint)
	cls := classifier.New(completer, logger, m)

	cases := []struct {
		reply    string
		expected models.Label
	}{
		{"No, that's all. Thank you!", models.LabelSatisfied},
		{"Actually, I have another question", models.LabelNeedsHelp},
		{"ok", models.LabelUncertain},
	}

	fmt.Println("\nIntent classification samples:")
	for _, c := range cases {
		conversation := []models.Message{
			{Text: "My password reset link doesn't work", Speaker: models.SpeakerCustomer},
			{Text: "I've sent you a fresh link. Is there anything else I can help you with?", Speaker: models.SpeakerAgent},
			{Text: c.reply, Speaker: models.SpeakerCustomer},
		}
		label := cls.Classify(ctx, conversation)
		marker := "ok"
		if label != c.expected {
			marker = "MISMATCH"
		}
		fmt.Printf("  %q -> %s (expected %s) %s\n", c.reply, label, c.expected, marker)
	}
}
