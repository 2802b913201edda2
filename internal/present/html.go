package present

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"spreadscan/pkg/model"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 6px 10px; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p><b>Market Logic:</b> reversals and gaps relative to the previous close.</p>
<ul>
<li><span style="color: {{.Red}}; font-weight: bold;">RED</span>: No setup found.</li>
<li><span style="color: {{.Green}}; font-weight: bold;">GREEN (R1/R2)</span>: Setup identified.</li>
</ul>
{{.Body}}
</body>
</html>
`))

// HTML renders reports as a standalone page: the markdown table converted by goldmark
type HTML struct {
	Styles   Styles
	Title    string
	Preamble string // markdown placed above the table
}

// RenderRows renders the pairwise or full table page
func (h *HTML) RenderRows(w io.Writer, report *model.ScanReport) error {
	md := &Markdown{Styles: h.Styles, Boxes: true}
	return h.page(w, report, md.rowsMarkdown(report))
}

// RenderMatrix renders the matrix page
func (h *HTML) RenderMatrix(w io.Writer, report *model.ScanReport) error {
	md := &Markdown{Styles: h.Styles, Boxes: true}
	return h.page(w, report, md.matrixMarkdown(report))
}

func (h *HTML) page(w io.Writer, report *model.ScanReport, markdown string) error {
	if h.Preamble != "" {
		markdown = h.Preamble + "\n\n" + markdown
	}
	body, err := MarkdownToHTML(markdown)
	if err != nil {
		return err
	}

	title := h.Title
	if title == "" {
		title = "Credit Spread Scanner"
		if report.Granularity != "" {
			title = fmt.Sprintf("%s %s", report.Granularity.Name(), title)
		}
	}

	return pageTemplate.Execute(w, struct {
		Title, Red, Green string
		Body              template.HTML
	}{title, h.Styles.Red, h.Styles.Green, template.HTML(body)})
}

// MarkdownToHTML converts GFM markdown (tables, inline HTML) to HTML
func MarkdownToHTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
