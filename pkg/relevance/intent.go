package relevance

import "strings"

// Intent names a heuristic query intention.
type Intent string

const (
	// IntentFocus is "what should I focus on".
	IntentFocus Intent = "focus"
	// IntentWeak is "what am I weak at".
	IntentWeak Intent = "weak"
	// IntentShopping is a grocery or shopping list lookup.
	IntentShopping Intent = "shopping"
	// IntentFrustration is a recent failure or struggle.
	IntentFrustration Intent = "frustration"
	// IntentQuiz is a conversation about quizzes.
	IntentQuiz Intent = "quiz"
)

// IntentTable maps each intent to the keywords that signal it. Matching is a
// case-insensitive substring test, so multi-word phrases are allowed.
type IntentTable map[Intent][]string

// DefaultIntents returns the built-in keyword table.
func DefaultIntents() IntentTable {
	return IntentTable{
		IntentFocus:       {"focus", "review", "study", "prepare", "what should"},
		IntentWeak:        {"weak", "struggle", "difficult", "improve"},
		IntentFrustration: {"tough", "hard", "difficult", "0%", "failed"},
		IntentQuiz:        {"quiz"},
		IntentShopping: {
			"grocery", "groceries", "shopping", "shop", "buy", "purchase",
			"supermarket", "milk", "eggs", "bread", "butter", "cheese",
			"fruit", "vegetables", "rice", "coffee",
		},
	}
}

// Match reports whether text expresses the intent.
func (t IntentTable) Match(intent Intent, text string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	for _, kw := range t[intent] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
