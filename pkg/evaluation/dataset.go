package evaluation

// Sample is one labeled detection case. Category groups samples by message
// style so regressions concentrated in one style are visible.
type Sample struct {
	Message  string
	Expected bool
	Category string
}

// ClosureDataset is the labeled corpus used to validate closure detection.
var ClosureDataset = []Sample{
	// Clear closure statements
	{Message: "Is there anything else I can help you with?", Expected: true, Category: "direct_closure"},
	{Message: "Do you need any other assistance?", Expected: true, Category: "direct_closure"},
	{Message: "Anything else I can help with today?", Expected: true, Category: "direct_closure"},
	{Message: "Will that be all for today?", Expected: true, Category: "direct_closure"},
	{Message: "Can I help you with anything else?", Expected: true, Category: "direct_closure"},
	{Message: "Is there something else I can assist you with?", Expected: true, Category: "direct_closure"},

	// Gratitude-based closures
	{Message: "Hope I was able to help you today", Expected: true, Category: "gratitude_closure"},
	{Message: "Glad I could assist you with that", Expected: true, Category: "gratitude_closure"},
	{Message: "Happy I could help resolve that for you", Expected: true, Category: "gratitude_closure"},
	{Message: "Thanks for contacting us today", Expected: true, Category: "gratitude_closure"},

	// Farewell-based closures
	{Message: "Have a great day!", Expected: true, Category: "farewell_closure"},
	{Message: "Have a wonderful evening", Expected: true, Category: "farewell_closure"},
	{Message: "Take care and have a nice day", Expected: true, Category: "farewell_closure"},
	{Message: "Great talking to you today", Expected: true, Category: "farewell_closure"},

	// Reach-out closures
	{Message: "Feel free to reach out if you need anything else", Expected: true, Category: "reachout_closure"},
	{Message: "Don't hesitate to contact us if you have more questions", Expected: true, Category: "reachout_closure"},
	{Message: "Let me know if you need anything else", Expected: true, Category: "reachout_closure"},

	// Paraphrases that should still detect
	{Message: "Can I assist with anything else today?", Expected: true, Category: "variation"},
	{Message: "Do you have any other questions for me?", Expected: true, Category: "variation"},
	{Message: "Is there anything else you'd like help with?", Expected: true, Category: "variation"},
	{Message: "Would you like assistance with anything else?", Expected: true, Category: "variation"},

	// Problem-solving statements
	{Message: "Let me check that for you", Expected: false, Category: "problem_solving"},
	{Message: "I'll look into this issue right away", Expected: false, Category: "problem_solving"},
	{Message: "Let me transfer you to the billing department", Expected: false, Category: "problem_solving"},
	{Message: "I'm going to reset your password now", Expected: false, Category: "problem_solving"},

	// Information requests
	{Message: "Can you provide me with your account number?", Expected: false, Category: "information_request"},
	{Message: "What seems to be the problem?", Expected: false, Category: "information_request"},
	{Message: "Could you describe the issue in more detail?", Expected: false, Category: "information_request"},
	{Message: "When did this problem start?", Expected: false, Category: "information_request"},

	// Acknowledgments
	{Message: "I understand your concern", Expected: false, Category: "acknowledgment"},
	{Message: "Thank you for that information", Expected: false, Category: "acknowledgment"},
	{Message: "I see what you mean", Expected: false, Category: "acknowledgment"},
	{Message: "Got it, let me help you with that", Expected: false, Category: "acknowledgment"},

	// Instructions and solutions
	{Message: "Here's how you can fix this issue", Expected: false, Category: "instruction"},
	{Message: "Try clearing your browser cache", Expected: false, Category: "instruction"},
	{Message: "You should receive an email within 24 hours", Expected: false, Category: "instruction"},
	{Message: "Click on the settings icon in the top right", Expected: false, Category: "instruction"},

	// General conversation
	{Message: "Hello, how can I help you today?", Expected: false, Category: "greeting"},
	{Message: "I'm here to assist you", Expected: false, Category: "greeting"},
	{Message: "Thanks for your patience", Expected: false, Category: "general"},
	{Message: "I appreciate you waiting", Expected: false, Category: "general"},

	// Short messages, below the detectable floor
	{Message: "ok", Expected: false, Category: "edge_case_short"},
	{Message: "thanks", Expected: false, Category: "edge_case_short"},
	{Message: "bye", Expected: false, Category: "edge_case_short"},

	// Contains "help" but not a closure
	{Message: "I need help with my order", Expected: false, Category: "edge_case_ambiguous"},
	{Message: "Can you help me understand this charge?", Expected: false, Category: "edge_case_ambiguous"},
	{Message: "Please help me fix this error", Expected: false, Category: "edge_case_ambiguous"},

	// Contains closure keywords but not actually a closure
	{Message: "I'll have a great day once this is fixed", Expected: false, Category: "edge_case_false_positive"},
	{Message: "Can you take care of this issue?", Expected: false, Category: "edge_case_false_positive"},

	// Multi-sentence with closure at the end
	{Message: "I've updated your account settings. Is there anything else I can help you with?", Expected: true, Category: "multi_sentence"},
	{Message: "Your issue has been resolved. Have a great day!", Expected: true, Category: "multi_sentence"},
	{Message: "I've processed your refund. Let me know if you need anything else.", Expected: true, Category: "multi_sentence"},
}

// DatasetStats summarizes the label balance of a sample set.
type DatasetStats struct {
	Total      int
	Positives  int
	Negatives  int
	Categories map[string]int
}

func Stats(samples []Sample) DatasetStats {
	stats := DatasetStats{Categories: make(map[string]int)}
	for _, sample := range samples {
		stats.Total++
		if sample.Expected {
			stats.Positives++
		} else {
			stats.Negatives++
		}
		stats.Categories[sample.Category]++
	}
	return stats
}

// ByCategory filters a sample set to one category.
func ByCategory(samples []Sample, category string) []Sample {
	var out []Sample
	for _, sample := range samples {
		if sample.Category == category {
			out = append(out, sample)
		}
	}
	return out
}
