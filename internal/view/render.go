package view

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/emission"
)

// Funcs are available to every fragment template.
var Funcs = template.FuncMap{
	"num": emission.FormatNumber,
	"numptr": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return emission.FormatNumber(*v)
	},
}

// NewTemplate parses a fragment template with Funcs installed.
func NewTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(Funcs).Parse(text))
}

// Fragment executes tmpl into a block of the given class.
func Fragment(tmpl *template.Template, class string, data any) (Block, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Block{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return Block{Class: class, HTML: template.HTML(buf.String())}, nil
}

// Text wraps plain text as an escaped block.
func Text(class, text string) Block {
	return Block{Class: class, HTML: template.HTML(template.HTMLEscapeString(text))}
}

// markdown escapes raw HTML in its input; WithUnsafe is deliberately unset.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Markdown renders text as markdown, falling back to escaped text.
func Markdown(class, text string) Block {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return Text(class, text)
	}
	return Block{Class: class, HTML: template.HTML(buf.String())}
}
