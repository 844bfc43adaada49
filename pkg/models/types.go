package models

import (
	"fmt"
	"strings"
	"time"
)

// Speaker identifies who sent a message
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// Message is a single conversation entry. Immutable once created.
type Message struct {
	Text    string    `json:"text"`
	Speaker Speaker   `json:"speaker"`
	SentAt  time.Time `json:"sent_at"`
}

// Transcript renders an ordered message sequence as speaker-labeled lines,
// the format the intent classifier sends to the completion model.
func Transcript(messages []Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := "Agent"
		if msg.Speaker == SpeakerCustomer {
			label = "Customer"
		}
		fmt.Fprintf(&b, "%s: %s", label, msg.Text)
	}
	return b.String()
}

// LastCustomerMessage returns the most recent customer message, if any.
func LastCustomerMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Speaker == SpeakerCustomer {
			return messages[i], true
		}
	}
	return Message{}, false
}

// DetectionMatch pairs a reference example with its similarity score
type DetectionMatch struct {
	Example string  `json:"example"`
	Score   float64 `json:"score"`
}

// DetectionResult carries the full outcome of one closure detection
type DetectionResult struct {
	IsClosure     bool             `json:"is_closure"`
	MaxSimilarity float64          `json:"max_similarity"`
	BestMatch     string           `json:"best_match"`
	TopMatches    []DetectionMatch `json:"top_matches,omitempty"`
	Threshold     float64          `json:"threshold"`
	// Fallback is set when the embedding path failed and the keyword
	// fallback produced the verdict; similarity fields are zero then.
	Fallback bool `json:"fallback,omitempty"`
}

// Label is the closed intent classification set
type Label string

const (
	LabelNeedsHelp Label = "needs_help"
	LabelSatisfied Label = "satisfied"
	LabelUncertain Label = "uncertain"
)

// ParseLabel normalizes raw model output against the closed label set.
// Anything unrecognized maps to uncertain.
func ParseLabel(raw string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(raw))) {
	case LabelNeedsHelp:
		return LabelNeedsHelp, true
	case LabelSatisfied:
		return LabelSatisfied, true
	case LabelUncertain:
		return LabelUncertain, true
	default:
		return LabelUncertain, false
	}
}

// ClassificationResult carries the full outcome of one intent classification
type ClassificationResult struct {
	Label           Label  `json:"label"`
	CustomerMessage string `json:"customer_message,omitempty"`
	RawOutput       string `json:"raw_output,omitempty"`
	Valid           bool   `json:"valid"`
	Err             string `json:"error,omitempty"`
}

// TimerPhase is the countdown lifecycle phase for one conversation
type TimerPhase string

const (
	PhaseIdle         TimerPhase = "idle"
	PhaseCountingDown TimerPhase = "counting_down"
	PhasePaused       TimerPhase = "paused"
	PhaseFired        TimerPhase = "fired"
	PhaseCanceled     TimerPhase = "canceled"
)

// TimerMode distinguishes the standard and fast close windows
type TimerMode string

const (
	ModeStandard TimerMode = "standard"
	ModeFast     TimerMode = "fast"
)

// CloseCause tags how a conversation was closed
type CloseCause string

const (
	CauseAuto   CloseCause = "auto"
	CauseManual CloseCause = "manual"
)

// TimerSnapshot is a read-only view of one conversation's timer state
type TimerSnapshot struct {
	ConversationID      string        `json:"conversation_id"`
	Phase               TimerPhase    `json:"phase"`
	Mode                TimerMode     `json:"mode"`
	Remaining           time.Duration `json:"remaining_ms"`
	Total               time.Duration `json:"total_ms"`
	Closed              bool          `json:"closed"`
	IssueResolved       bool          `json:"issue_resolved"`
	MessageCount        int           `json:"message_count"`
	LastClassifiedIndex int           `json:"last_classified_index"`
	ClosureEverDetected bool          `json:"closure_ever_detected"`
}
