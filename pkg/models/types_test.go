package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript(t *testing.T) {
	messages := []Message{
		{Text: "Hi, my card was declined", Speaker: SpeakerCustomer},
		{Text: "Let me take a look at your account", Speaker: SpeakerAgent},
		{Text: "Thanks!", Speaker: SpeakerCustomer},
	}

	expected := "Customer: Hi, my card was declined\n" +
		"Agent: Let me take a look at your account\n" +
		"Customer: Thanks!"
	assert.Equal(t, expected, Transcript(messages))

	assert.Equal(t, "", Transcript(nil))
}

func TestLastCustomerMessage(t *testing.T) {
	messages := []Message{
		{Text: "first", Speaker: SpeakerCustomer},
		{Text: "reply", Speaker: SpeakerAgent},
		{Text: "second", Speaker: SpeakerCustomer},
		{Text: "closing", Speaker: SpeakerAgent},
	}

	last, ok := LastCustomerMessage(messages)
	require.True(t, ok)
	assert.Equal(t, "second", last.Text)

	_, ok = LastCustomerMessage([]Message{{Text: "only agent", Speaker: SpeakerAgent}})
	assert.False(t, ok)

	_, ok = LastCustomerMessage(nil)
	assert.False(t, ok)
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		raw   string
		label Label
		valid bool
	}{
		{"satisfied", LabelSatisfied, true},
		{"needs_help", LabelNeedsHelp, true},
		{"uncertain", LabelUncertain, true},
		{"  Satisfied \n", LabelSatisfied, true},
		{"NEEDS_HELP", LabelNeedsHelp, true},
		{"needs help", LabelUncertain, false},
		{"The customer is satisfied.", LabelUncertain, false},
		{"", LabelUncertain, false},
	}

	for _, tt := range tests {
		label, valid := ParseLabel(tt.raw)
		assert.Equal(t, tt.label, label, "raw=%q", tt.raw)
		assert.Equal(t, tt.valid, valid, "raw=%q", tt.raw)
	}
}
