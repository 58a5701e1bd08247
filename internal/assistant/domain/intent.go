package domain

import "strings"

type Intent string

const (
	IntentDebug    Intent = "debug"
	IntentExplain  Intent = "explain"
	IntentOptimize Intent = "optimize"
	IntentTest     Intent = "test"
	IntentGenerate Intent = "generate"
	IntentGeneral  Intent = "general"
)

// intentRules is checked in order; the first rule with a matching keyword wins.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentDebug, []string{"fix", "bug", "error", "debug"}},
	{IntentExplain, []string{"explain", "what does", "how does"}},
	{IntentOptimize, []string{"optimize", "performance", "faster", "improve"}},
	{IntentTest, []string{"test"}},
	{IntentGenerate, []string{"create", "generate", "write", "build"}},
}

// DetectIntent classifies a chat message by case-insensitive keyword match.
func DetectIntent(message string) Intent {
	m := strings.ToLower(message)
	for _, r := range intentRules {
		for _, kw := range r.keywords {
			if strings.Contains(m, kw) {
				return r.intent
			}
		}
	}
	return IntentGeneral
}
