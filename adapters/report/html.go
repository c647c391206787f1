package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const htmlShell = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 24px; }
      h1, h2 { margin-bottom: 8px; }
      table { border-collapse: collapse; width: 100%; margin-bottom: 16px; }
      th, td { border: 1px solid #ddd; padding: 6px; font-size: 12px; }
      th { background: #f5f5f5; }
    </style>
  </head>
  <body>
{{.Body}}
  </body>
</html>
`

var shellTmpl = template.Must(template.New("shell").Parse(htmlShell))

// HTML renders the run as a standalone HTML page: the markdown report
// converted with table support and wrapped in a styled shell.
func HTML(in Input) ([]byte, error) {
	md, err := Markdown(in)
	if err != nil {
		return nil, err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	body := markdown.ToHTML(md, p, renderer)

	title := in.Title
	if title == "" {
		title = "Clinical Trial Analysis Report"
	}

	var buf bytes.Buffer
	err = shellTmpl.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML shell: %w", err)
	}
	return buf.Bytes(), nil
}
