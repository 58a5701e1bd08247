package preview

import (
	"errors"
	"fmt"
	"html"
	"path"
	"regexp"
	"sort"
	"strings"

	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// Kind names how the preview document was produced.
type Kind string

const (
	KindHTML        Kind = "html"
	KindMarkdown    Kind = "markdown"
	KindPlaceholder Kind = "placeholder"
)

// Sandbox is the iframe sandbox token list the document is meant for. The
// same list is sent as the CSP sandbox directive.
const Sandbox = "allow-scripts allow-modals"

var ErrNotRenderable = errors.New("only html and markdown files can be previewed")

// Document is one self-contained HTML page built from a project.
type Document struct {
	HTML      string `json:"html"`
	Kind      Kind   `json:"kind"`
	EntryID   string `json:"entry_id,omitempty"`
	EntryPath string `json:"entry,omitempty"`
	Sandbox   string `json:"sandbox"`
}

var (
	linkTagRe   = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	scriptTagRe = regexp.MustCompile(`(?is)<script\b([^>]*)>\s*</script\s*>`)
	attrRe      = regexp.MustCompile(`(?is)\b([a-z][a-z0-9_:-]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	htmlOpenRe  = regexp.MustCompile(`(?i)<html\b`)
	headCloseRe = regexp.MustCompile(`(?i)</head\s*>`)
	bodyOpenRe  = regexp.MustCompile(`(?i)<body\b`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)
	htmlCloseRe = regexp.MustCompile(`(?i)</html\s*>`)
	scriptEndRe = regexp.MustCompile(`(?i)</script`)
	styleEndRe  = regexp.MustCompile(`(?i)</style`)
)

// Render builds the preview document. entryFileID selects the entry file;
// when empty the entry is root index.html, else the first HTML file by path,
// else the first markdown file. A project with none of those gets a
// placeholder page.
func Render(p *projdomain.Project, entryFileID string) (*Document, error) {
	entry, err := pickEntry(p, entryFileID)
	if err != nil {
		return nil, err
	}

	var doc *Document
	switch {
	case entry == nil:
		doc = &Document{HTML: placeholderDocument(p.Name), Kind: KindPlaceholder}
	case isMarkdown(entry):
		out, err := markdownDocument(p, entry)
		if err != nil {
			return nil, err
		}
		doc = &Document{HTML: out, Kind: KindMarkdown}
	default:
		doc = &Document{HTML: htmlDocument(p, entry), Kind: KindHTML}
	}

	if entry != nil {
		doc.EntryID = entry.ID
		doc.EntryPath = entry.Path
	}
	doc.Sandbox = Sandbox
	return doc, nil
}

func pickEntry(p *projdomain.Project, entryFileID string) (*projdomain.File, error) {
	if entryFileID != "" {
		f, _ := p.FileByID(entryFileID)
		if f == nil {
			return nil, projdomain.ErrFileNotFound
		}
		if !isHTML(f) && !isMarkdown(f) {
			return nil, ErrNotRenderable
		}
		return f, nil
	}

	byPath := sortedByPath(p.Files)
	for _, f := range byPath {
		if strings.EqualFold(f.Path, "index.html") {
			return f, nil
		}
	}
	for _, f := range byPath {
		if isHTML(f) {
			return f, nil
		}
	}
	for _, f := range byPath {
		if isMarkdown(f) {
			return f, nil
		}
	}
	return nil, nil
}

// htmlDocument inlines the stylesheets and scripts the entry references and
// injects the remaining CSS at the end of <head> and JS before </body>. Both
// insertion points are taken from the entry markup before any file content is
// spliced in.
func htmlDocument(p *projdomain.Project, entry *projdomain.File) string {
	doc := entry.Content
	if !htmlOpenRe.MatchString(doc) {
		doc = wrapFragment(p.Name, doc)
	}

	headAt, needHead := headInsertPoint(doc)
	bodyAt, atEnd := bodyInsertPoint(doc)
	if bodyAt < headAt {
		bodyAt, atEnd = headAt, false
	}

	in := &inliner{
		files:   indexByPath(p.Files),
		used:    map[string]bool{entry.Path: true},
		baseDir: path.Dir(entry.Path),
	}
	head := in.inline(doc[:headAt])
	body := in.inline(doc[headAt:bodyAt])
	tail := in.inline(doc[bodyAt:])

	var css, js []string
	for _, f := range sortedByPath(p.Files) {
		if in.used[f.Path] {
			continue
		}
		switch {
		case isCSS(f):
			css = append(css, f.Content)
		case isJS(f):
			js = append(js, f.Content)
		}
	}

	var b strings.Builder
	b.WriteString(head)
	if len(css) > 0 {
		block := styleBlock(strings.Join(css, "\n"), "")
		if needHead {
			b.WriteString("<head>\n" + block + "\n</head>\n")
		} else {
			b.WriteString(block + "\n")
		}
	}
	b.WriteString(body)
	if len(js) > 0 {
		block := scriptBlock(strings.Join(js, "\n;\n"), "", "")
		if atEnd {
			b.WriteString("\n" + block)
		} else {
			b.WriteString(block + "\n")
		}
	}
	b.WriteString(tail)
	return b.String()
}

type inliner struct {
	files   map[string]*projdomain.File
	used    map[string]bool
	baseDir string
}

// inline replaces <link rel=stylesheet> and empty <script src> tags that
// point at project files with the file contents.
func (in *inliner) inline(doc string) string {
	doc = linkTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		attrs := parseAttrs(tag)
		if !strings.EqualFold(strings.TrimSpace(attrs["rel"]), "stylesheet") {
			return tag
		}
		f := resolveRef(in.files, in.baseDir, attrs["href"])
		if f == nil || !isCSS(f) {
			return tag
		}
		in.used[f.Path] = true
		return styleBlock(f.Content, f.Path)
	})

	return scriptTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		m := scriptTagRe.FindStringSubmatch(tag)
		attrs := parseAttrs(m[1])
		f := resolveRef(in.files, in.baseDir, attrs["src"])
		if f == nil || !isJS(f) {
			return tag
		}
		in.used[f.Path] = true
		return scriptBlock(f.Content, f.Path, attrs["type"])
	})
}

func wrapFragment(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// headInsertPoint is the offset right before </head>. Documents without a
// head get one ahead of <body>, or at the very top; needHead reports that.
func headInsertPoint(doc string) (at int, needHead bool) {
	if loc := headCloseRe.FindStringIndex(doc); loc != nil {
		return loc[0], false
	}
	if loc := bodyOpenRe.FindStringIndex(doc); loc != nil {
		return loc[0], true
	}
	return 0, false
}

// bodyInsertPoint is the offset of the last </body>, else of the last
// </html>, else the end of the document.
func bodyInsertPoint(doc string) (at int, atEnd bool) {
	if locs := bodyCloseRe.FindAllStringIndex(doc, -1); len(locs) > 0 {
		return locs[len(locs)-1][0], false
	}
	if locs := htmlCloseRe.FindAllStringIndex(doc, -1); len(locs) > 0 {
		return locs[len(locs)-1][0], false
	}
	return len(doc), true
}

func styleBlock(css, source string) string {
	css = styleEndRe.ReplaceAllString(css, `<\/style`)
	if source != "" {
		return fmt.Sprintf("<style data-file=\"%s\">\n%s\n</style>", html.EscapeString(source), css)
	}
	return fmt.Sprintf("<style>\n%s\n</style>", css)
}

func scriptBlock(js, source, typ string) string {
	js = scriptEndRe.ReplaceAllString(js, `<\/script`)
	var attrs strings.Builder
	if typ != "" {
		fmt.Fprintf(&attrs, " type=\"%s\"", html.EscapeString(typ))
	}
	if source != "" {
		fmt.Fprintf(&attrs, " data-file=\"%s\"", html.EscapeString(source))
	}
	return fmt.Sprintf("<script%s>\n%s\n</script>", attrs.String(), js)
}

// parseAttrs returns the tag's attributes keyed by lower-case name.
func parseAttrs(tag string) map[string]string {
	out := map[string]string{}
	for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
		name := strings.ToLower(m[1])
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = html.UnescapeString(m[2] + m[3] + m[4])
	}
	return out
}

// resolveRef maps an href/src to a project file. External URLs and
// references leaving the project root resolve to nil.
func resolveRef(files map[string]*projdomain.File, baseDir, ref string) *projdomain.File {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" || strings.HasPrefix(ref, "//") || strings.Contains(ref, ":") {
		return nil
	}

	var joined string
	if strings.HasPrefix(ref, "/") {
		joined = path.Clean(ref)
	} else {
		joined = path.Join(baseDir, ref)
	}
	joined = strings.TrimPrefix(joined, "/")
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return nil
	}
	return files[projdomain.NormalizePath(joined)]
}

func indexByPath(files []projdomain.File) map[string]*projdomain.File {
	out := make(map[string]*projdomain.File, len(files))
	for i := range files {
		out[files[i].Path] = &files[i]
	}
	return out
}

func sortedByPath(files []projdomain.File) []*projdomain.File {
	out := make([]*projdomain.File, 0, len(files))
	for i := range files {
		out = append(out, &files[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func ext(f *projdomain.File) string {
	return strings.ToLower(path.Ext(f.Name))
}

func isHTML(f *projdomain.File) bool {
	e := ext(f)
	return e == ".html" || e == ".htm"
}

func isMarkdown(f *projdomain.File) bool {
	e := ext(f)
	return e == ".md" || e == ".markdown"
}

func isCSS(f *projdomain.File) bool {
	return ext(f) == ".css"
}

// isJS accepts scripts a browser runs as-is; jsx and ts need a build step.
func isJS(f *projdomain.File) bool {
	switch ext(f) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}
