package keynote

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/chumsley/keynote-summary/internal/archive"
	"github.com/chumsley/keynote-summary/internal/content"
)

// quiet discards splicing reports from accessors that do not render.
var quiet = slog.New(slog.DiscardHandler)

// Flags are the per-slide settings recorded at document level.
type Flags struct {
	Hidden bool
	Depth  int // Heading level; values below 1 render as 1
	Number int // 1-based position in the slide order, 0 when unreachable
}

// Slide is one slide's content in record order. The first object is the
// slide's title.
type Slide struct {
	ID uint64
	Flags

	objects   []content.Object
	equations []int // indices into objects, in encounter order
	log       *slog.Logger
}

// NewSlide classifies the records of one slide. All records share the
// identifier of the first.
func NewSlide(recs []archive.Record, flags Flags, log *slog.Logger) (*Slide, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("slide has no records")
	}
	id, err := recs[0].Identifier()
	if err != nil {
		return nil, fmt.Errorf("slide identifier: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Slide{ID: id, Flags: flags, log: log.With("slide", id)}
	for _, rec := range recs {
		obj, ok := content.Classify(rec)
		if !ok {
			continue
		}
		if obj.Kind == content.Equation {
			obj.Index = len(s.equations) + 1
			s.equations = append(s.equations, len(s.objects))
		}
		s.objects = append(s.objects, obj)
	}
	return s, nil
}

// Objects returns the slide's content in record order.
func (s *Slide) Objects() []content.Object {
	return s.objects
}

// Equations returns the slide's equations in encounter order.
func (s *Slide) Equations() []content.Object {
	out := make([]content.Object, len(s.equations))
	for i, idx := range s.equations {
		out[i] = s.objects[idx]
	}
	return out
}

// Title returns the first object's text on a single line.
func (s *Slide) Title() (string, error) {
	if len(s.objects) == 0 {
		return "", ErrEmptySlide
	}
	cooked, _ := s.cook(quiet)
	return singleLine(cooked[0]), nil
}

// Content returns the title and the remaining blocks as they are rendered:
// equations spliced into their anchoring text are left out of the body.
func (s *Slide) Content() (string, []string) {
	if len(s.objects) == 0 {
		s.log.Warn("slide has no content")
		return "", nil
	}
	cooked, consumed := s.cook(s.log)
	body := make([]string, 0, len(cooked)-1)
	for i := 1; i < len(cooked); i++ {
		if consumed[i] {
			continue
		}
		body = append(body, cooked[i])
	}
	return singleLine(cooked[0]), body
}

// Heading returns the slide's heading line for the given title.
func (s *Slide) Heading(title string) string {
	num := " "
	if s.Number > 0 {
		num = fmt.Sprintf(" %d: ", s.Number)
	}
	return strings.Repeat("#", s.Level()) + num + title
}

// Level is the heading depth, at least 1.
func (s *Slide) Level() int {
	if s.Depth < 1 {
		return 1
	}
	return s.Depth
}

// Render returns the slide as markdown: the heading line followed by the
// body blocks, separated by blank lines.
func (s *Slide) Render() string {
	title, body := s.Content()
	return strings.Join(append([]string{s.Heading(title)}, body...), "\n\n")
}

func (s *Slide) String() string {
	label := "Slide"
	if s.Number > 0 {
		label = fmt.Sprintf("Slide %d", s.Number)
	}
	var title string
	if len(s.objects) > 0 {
		cooked, _ := s.cook(quiet)
		title = strings.ReplaceAll(singleLine(cooked[0]), "\n", " ")
	}
	if r := []rune(title); len(r) > 35 {
		title = string(r[:32]) + "..."
	}
	return fmt.Sprintf("<%s: '%s'>", label, title)
}

// cook renders every object, splicing equations into the placeholders of
// the text that anchors them. Equations are handed out first in, first
// out across the whole slide. The returned set holds the indices of
// equations that were spliced and must not be rendered again. Splicing
// anomalies are reported to log.
func (s *Slide) cook(log *slog.Logger) ([]string, map[int]bool) {
	cooked := make([]string, len(s.objects))
	consumed := make(map[int]bool)
	next := 0
	for i, obj := range s.objects {
		text := obj.String()
		if obj.Kind != content.Equation && strings.Contains(text, content.Placeholder) {
			text, next = s.splice(log, text, next, consumed)
		}
		cooked[i] = text
	}
	return cooked, consumed
}

func (s *Slide) splice(log *slog.Logger, text string, next int, consumed map[int]bool) (string, int) {
	var b strings.Builder
	for {
		at := strings.Index(text, content.Placeholder)
		if at < 0 {
			b.WriteString(text)
			return b.String(), next
		}
		b.WriteString(text[:at])
		text = text[at+len(content.Placeholder):]

		if next >= len(s.equations) {
			log.Warn("placeholder has no equation left to splice", "equations", len(s.equations))
			b.WriteString(content.Placeholder)
			continue
		}
		idx := s.equations[next]
		next++
		b.WriteString(s.objects[idx].String())
		if idx == 0 {
			// The title is never dropped from the slide.
			log.Warn("spliced equation is the slide title, keeping it", "equation", s.objects[idx].Index)
			continue
		}
		consumed[idx] = true
	}
}

func singleLine(s string) string {
	return strings.ReplaceAll(s, "\n\n", " ")
}
