package domain

import (
	"strings"
	"text/template"
	"unicode/utf8"
)

// SystemPrompt frames every conversation.
const SystemPrompt = "You are QuantumCode's coding assistant inside a browser IDE. " +
	"Answer concisely, use fenced code blocks for code, and keep to the user's language and framework."

// MaxContextChars caps how much of the current file is embedded in a prompt.
const MaxContextChars = 12000

var instructions = map[Intent]string{
	IntentDebug:    "Find the bug behind the problem below. Explain the cause in a sentence or two, then show the corrected code.",
	IntentExplain:  "Explain what the code does, step by step, for a developer who is new to it.",
	IntentOptimize: "Suggest concrete improvements to performance and readability. Show the revised code and say what changed.",
	IntentTest:     "Write unit tests for the code. Cover the main path and the edge cases, and name the test framework you use.",
	IntentGenerate: "Write the code that is asked for. Keep it complete and runnable, with brief comments only where needed.",
	IntentGeneral:  "Answer the question.",
}

var promptTmpl = template.Must(template.New("prompt").Parse(`{{.Instruction}}

Request:
{{.Message}}
{{- with .File}}

Current file: {{.Path}} ({{.Language}})
` + "```" + `{{.Language}}
{{.Content}}
` + "```" + `
{{- end}}
`))

// BuildPrompt renders the fixed template for intent around the message and,
// when given, the current file.
func BuildPrompt(intent Intent, message string, file *FileContext) string {
	instruction, ok := instructions[intent]
	if !ok {
		instruction = instructions[IntentGeneral]
	}

	var f *FileContext
	if file != nil {
		cp := *file
		if len(cp.Content) > MaxContextChars {
			cut := MaxContextChars
			for cut > 0 && !utf8.RuneStart(cp.Content[cut]) {
				cut--
			}
			cp.Content = cp.Content[:cut] + "\n... (truncated)"
		}
		f = &cp
	}

	var b strings.Builder
	// the template only reads strings; Execute cannot fail on these inputs
	_ = promptTmpl.Execute(&b, struct {
		Instruction string
		Message     string
		File        *FileContext
	}{instruction, message, f})
	return b.String()
}
