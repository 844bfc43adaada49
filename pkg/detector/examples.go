package detector

// DefaultClosureExamples is the curated reference set. Incoming agent
// messages are compared against these by embedding similarity; a paraphrase
// of any of them should score above the threshold.
var DefaultClosureExamples = []string{
	"Hope I was able to help you",
	"Is there anything else I can help you with?",
	"Do you need any other help?",
	"Anything else I can assist you with?",
	"Glad I could help",
	"Happy I could assist you",
	"Great talking to you",
	"Nice talking to you",
	"Have a great day",
	"Have a wonderful day",
	"Take care",
	"If you need anything else, feel free to reach out",
	"Feel free to contact us if you need anything",
	"Don't hesitate to reach out",
	"Is there something else I can help with?",
	"Can I help you with anything else?",
	"Will that be all?",
	"Anything else for you today?",
	"Is there anything else you need assistance with?",
	"Let me know if you need anything else",
	"Thanks for contacting today",
	"Glad I was able to help you, is there anything else you need help with",
	"Hope I was able to help you with, is there anything else I can help you today",
}

// fallbackKeywords drive the keyword-containment fallback used when the
// embedding path is unavailable. Lower recall than similarity matching, but
// it keeps detection alive with no remote dependency.
var fallbackKeywords = []string{
	"anything else",
	"help you with",
	"great day",
	"take care",
	"glad i could",
	"happy to help",
	"hope i was able",
	"will that be all",
}
