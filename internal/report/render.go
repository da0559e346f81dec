package report

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	htmlPolicy = bluemonday.UGCPolicy()
)

const pageTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s %s</title></head>
<body>
%s</body></html>
`

// RenderHTML converts report markdown to a sanitized HTML page. The front
// matter is dropped from the body and used for the title.
func RenderHTML(content []byte) ([]byte, error) {
	fm, body, err := ParseFrontMatter(content)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	safe := htmlPolicy.SanitizeBytes(buf.Bytes())

	title := labelPolicy.Sanitize(fm.User)
	return []byte(fmt.Sprintf(pageTemplate, title, labelPolicy.Sanitize(fm.Week), safe)), nil
}

// HTML loads a stored report and renders it
func (s *Store) HTML(user, week string) ([]byte, error) {
	content, err := s.Read(user, week)
	if err != nil {
		return nil, err
	}
	return RenderHTML(content)
}
