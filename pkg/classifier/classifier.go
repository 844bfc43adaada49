package classifier

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/constants"
	"contact-autoclose/pkg/metrics"
	"contact-autoclose/pkg/models"
)

const systemPrompt = `You are analyzing a customer service conversation to determine the customer's intent after the agent has provided a closure statement (like "Is there anything else I can help you with?").

Your task is to classify the customer's MOST RECENT response into one of three categories:

1. "needs_help" - Customer indicates they need MORE help, have ANOTHER issue, are unhappy with the resolution, or want to continue the conversation
   Examples:
   - "Wait, I have another question"
   - "Actually, that didn't work"
   - "I'm still having problems"
   - "Yes, I need help with..."
   - "Can you help me with something else?"
   - "What about..."

2. "satisfied" - Customer indicates they are DONE, satisfied, have NO MORE issues, or are declining further assistance
   Examples:
   - "No, that's all. Thank you!"
   - "Nope, I'm good"
   - "No, thank you for your help"
   - "Thanks for your assistance"
   - "Perfect, that worked!"
   - "All set, thanks"
   - "I appreciate your help"
   - Any response that clearly says "no" to needing more help

3. "uncertain" - The response is ambiguous, off-topic, or unclear about whether they need more help
   Examples:
   - "ok"
   - "sure"
   - "alright"
   - Single word responses without clear intent

CRITICAL RULES:
- If the customer says "No" or "Nope" in response to "anything else?", classify as "satisfied"
- If the customer says "thank you" WITHOUT mentioning a new issue, classify as "satisfied"
- If the customer mentions a NEW issue or problem, classify as "needs_help"
- Focus on the customer's MOST RECENT message after the closure question

Respond with ONLY one word: "needs_help", "satisfied", or "uncertain"`

// Classifier determines the customer's intent after a closure statement.
// It is conservative: any failure or unrecognized model output resolves to
// uncertain, never to an error the caller must handle.
type Classifier struct {
	completer Completer
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

func New(completer Completer, logger *logrus.Logger, m *metrics.Metrics) *Classifier {
	return &Classifier{
		completer: completer,
		logger:    logger,
		metrics:   m,
	}
}

// Classify returns the intent label for the conversation's most recent
// customer message.
func (c *Classifier) Classify(ctx context.Context, conversation []models.Message) models.Label {
	return c.ClassifyDetailed(ctx, conversation).Label
}

// ClassifyDetailed runs classification and returns the full result,
// including the raw model output and validity flag.
func (c *Classifier) ClassifyDetailed(ctx context.Context, conversation []models.Message) models.ClassificationResult {
	result := models.ClassificationResult{Label: models.LabelUncertain}
	if last, ok := models.LastCustomerMessage(conversation); ok {
		result.CustomerMessage = last.Text
	}

	userPrompt := "Here is the conversation:\n\n" + models.Transcript(conversation) +
		"\n\nClassify the customer's overall intent based on their most recent messages after the closure statement."

	start := time.Now()
	raw, err := c.completer.Complete(ctx, systemPrompt, userPrompt,
		constants.ClassificationTemperature, constants.ClassificationMaxTokens)
	c.metrics.CompletionRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.WithError(err).Warn("Intent classification request failed, defaulting to uncertain")
		c.metrics.IntentClassifications.WithLabelValues("error").Inc()
		result.Err = err.Error()
		return result
	}

	label, valid := models.ParseLabel(raw)
	result.Label = label
	result.RawOutput = raw
	result.Valid = valid

	if !valid {
		c.logger.WithField("raw_output", raw).Warn("Unexpected classification output, defaulting to uncertain")
	}

	c.metrics.IntentClassifications.WithLabelValues(string(label)).Inc()

	c.logger.WithFields(logrus.Fields{
		"label": label,
		"valid": valid,
	}).Debug("Customer response classified")

	return result
}
