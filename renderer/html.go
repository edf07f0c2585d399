package renderer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var converter = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML converts markdown to an HTML fragment. Raw HTML in the input is not rendered.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
