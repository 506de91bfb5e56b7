// Package render turns a rebuilt presentation into output documents.
package render

import (
	"strings"

	"github.com/chumsley/keynote-summary/internal/keynote"
)

// Options control which slides are rendered and what follows them.
type Options struct {
	SkipHidden bool
	Trailer    string // Appended as a final block when non-empty
}

// Slides returns the document's slides in presentation order, without
// hidden slides when SkipHidden is set.
func Slides(doc *keynote.Document, opts Options) ([]*keynote.Slide, error) {
	slides, err := doc.Slides()
	if err != nil {
		return nil, err
	}
	if !opts.SkipHidden {
		return slides, nil
	}
	shown := slides[:0:0]
	for _, s := range slides {
		if !s.Hidden {
			shown = append(shown, s)
		}
	}
	return shown, nil
}

// Markdown renders the document as markdown, one slide per section,
// separated by blank lines.
func Markdown(doc *keynote.Document, opts Options) (string, error) {
	slides, err := Slides(doc, opts)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		parts = append(parts, s.Render())
	}
	return AppendTrailer(strings.Join(parts, "\n\n"), opts.Trailer), nil
}

// AppendTrailer joins a trailer block after text the way slides are joined.
func AppendTrailer(text, trailer string) string {
	switch {
	case trailer == "":
		return text
	case text == "":
		return trailer
	}
	return text + "\n\n" + trailer
}
