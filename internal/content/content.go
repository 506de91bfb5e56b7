// Package content classifies archive records into slide content and
// assembles their text runs.
package content

import (
	"strings"

	"github.com/chumsley/keynote-summary/internal/archive"
)

const (
	// Placeholder anchors an inline object (an equation) inside a text run.
	Placeholder = "\uFFFC"
	// LineSeparator is a manual line break within a paragraph.
	LineSeparator = "\u2028"

	TextField     = "text"
	EquationField = "[TSWP.EquationInfoArchive.equation_source_text.equationSourceText]"

	noteHeader = "**NOTES:**\n"
)

// Kind is the content role of a record.
type Kind int

const (
	Text Kind = iota + 1
	Note
	Equation
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Note:
		return "note"
	case Equation:
		return "equation"
	}
	return "none"
}

// Object is one unit of slide content.
type Object struct {
	Kind Kind
	Runs []string // Text runs with placeholder-only runs removed
	// Index is the 1-based order of an equation within its slide; zero
	// for other kinds. Set by the slide that owns the object.
	Index int
}

// Valid reports whether the object carries any text.
func (o Object) Valid() bool {
	for _, r := range o.Runs {
		if r != "" {
			return true
		}
	}
	return false
}

// HasPlaceholder reports whether the object's text anchors inline objects.
func (o Object) HasPlaceholder() bool {
	for _, r := range o.Runs {
		if strings.Contains(r, Placeholder) {
			return true
		}
	}
	return false
}

// String renders the object with its kind's decoration.
func (o Object) String() string {
	text := Assemble(o.Runs)
	switch o.Kind {
	case Note:
		return noteHeader + text
	case Equation:
		return "$" + text + "$"
	}
	return text
}

// rule recognises one kind: the field holding its runs plus an optional
// extra predicate over the record's fields.
type rule struct {
	kind  Kind
	field string
	extra func(archive.Fields) bool
}

// rules are tried in order; the first valid match wins. A note is a text
// block marked kind == "NOTE", so it must precede the plain text rule.
var rules = []rule{
	{kind: Note, field: TextField, extra: isNote},
	{kind: Text, field: TextField},
	{kind: Equation, field: EquationField},
}

func isNote(f archive.Fields) bool {
	return f.String("kind") == "NOTE"
}

// Classify returns the content object a record represents, if any.
func Classify(rec archive.Record) (Object, bool) {
	fields := rec.Object()
	if fields == nil {
		return Object{}, false
	}
	for _, r := range rules {
		if !fields.Has(r.field) {
			continue
		}
		obj := Object{Kind: r.kind, Runs: Runs(fields.Strings(r.field))}
		if !obj.Valid() {
			continue
		}
		if r.extra != nil && !r.extra(fields) {
			continue
		}
		return obj, true
	}
	return Object{}, false
}

// Runs drops runs that consist solely of the placeholder character.
func Runs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r == Placeholder {
			continue
		}
		out = append(out, r)
	}
	return out
}

var breaks = strings.NewReplacer("\n", "\n\n", LineSeparator, "\n")

// Assemble joins runs into one string. A newline inside a run is a
// paragraph break and becomes a blank line; a line separator becomes a
// single newline.
func Assemble(runs []string) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(breaks.Replace(r))
	}
	return b.String()
}
