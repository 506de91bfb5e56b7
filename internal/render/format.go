package render

import (
	"fmt"
	"strings"
)

// Format names an output rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatOutline  Format = "outline"
)

// ParseFormat accepts a format name, case-insensitively. "md" is an alias
// for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatHTML, FormatDOCX, FormatOutline:
		return f, nil
	case "md", "":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// ContentType is the media type of the format's output.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatOutline:
		return "application/json"
	}
	return "text/markdown; charset=utf-8"
}

// Ext is the file extension for the format's output.
func (f Format) Ext() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatDOCX:
		return ".docx"
	case FormatOutline:
		return ".json"
	}
	return ".md"
}
