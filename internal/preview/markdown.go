package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// Raw HTML in markdown is kept; the document only ever runs inside the
// sandboxed frame.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
	),
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, -apple-system, sans-serif; line-height: 1.6; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #1f2933; }
pre { padding: 0.75rem; overflow-x: auto; border-radius: 6px; }
code { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 0.25rem 0.75rem; }
.qc-placeholder { color: #6b7280; text-align: center; margin-top: 20vh; }
</style>
{{- range .Styles}}
{{.}}
{{- end}}
</head>
<body>
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Title  string
	Styles []template.HTML
	Body   template.HTML
}

// RenderMarkdown converts markdown source to an HTML fragment.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

func markdownDocument(p *projdomain.Project, entry *projdomain.File) (string, error) {
	body, err := RenderMarkdown(entry.Content)
	if err != nil {
		return "", err
	}

	var styles []template.HTML
	for _, f := range sortedByPath(p.Files) {
		if isCSS(f) {
			styles = append(styles, template.HTML(styleBlock(f.Content, f.Path)))
		}
	}
	return renderPage(pageData{
		Title:  p.Name,
		Styles: styles,
		Body:   template.HTML(body),
	})
}

func placeholderDocument(title string) string {
	out, err := renderPage(pageData{
		Title: title,
		Body:  template.HTML(`<p class="qc-placeholder">Add an index.html or README.md to see a preview.</p>`),
	})
	if err != nil {
		// the template is static; execution only fails on writer errors
		return "<!DOCTYPE html><html><body></body></html>"
	}
	return out
}

func renderPage(data pageData) (string, error) {
	var b strings.Builder
	if err := pageTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render preview page: %w", err)
	}
	return b.String(), nil
}
