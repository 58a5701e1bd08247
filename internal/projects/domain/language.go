package domain

import (
	"path"
	"strings"
)

const LanguagePlaintext = "plaintext"

// languages maps a lower-case file extension to the editor language tag.
var languages = map[string]string{
	".html":     "html",
	".htm":      "html",
	".css":      "css",
	".scss":     "scss",
	".js":       "javascript",
	".mjs":      "javascript",
	".cjs":      "javascript",
	".jsx":      "javascript",
	".ts":       "typescript",
	".tsx":      "typescript",
	".json":     "json",
	".md":       "markdown",
	".markdown": "markdown",
	".py":       "python",
	".go":       "go",
	".java":     "java",
	".c":        "c",
	".h":        "c",
	".cpp":      "cpp",
	".hpp":      "cpp",
	".cs":       "csharp",
	".rs":       "rust",
	".rb":       "ruby",
	".php":      "php",
	".sh":       "shell",
	".yml":      "yaml",
	".yaml":     "yaml",
	".xml":      "xml",
	".svg":      "xml",
	".sql":      "sql",
}

// LanguageFor derives the language tag from a file name's extension.
func LanguageFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return LanguagePlaintext
}
