package keynote

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/chumsley/keynote-summary/internal/archive"
	"github.com/chumsley/keynote-summary/internal/content"
)

const ph = content.Placeholder

func rec(id uint64, fields map[string]any) archive.Record {
	return archive.Record{
		"header":  map[string]any{"identifier": id},
		"objects": []any{fields},
	}
}

func text(id uint64, runs ...any) archive.Record {
	return rec(id, map[string]any{content.TextField: runs})
}

func note(id uint64, runs ...any) archive.Record {
	return rec(id, map[string]any{content.TextField: runs, "kind": "NOTE"})
}

func equation(id uint64, src string) archive.Record {
	return rec(id, map[string]any{content.EquationField: []any{src}})
}

func ref(id uint64) map[string]any {
	return map[string]any{"identifier": id}
}

// documentRecords builds a slide tree over proxies and one slide record per
// proxy mapping to the true identifier.
func documentRecords(proxies []uint64, trueIDs []uint64, depths []int, hidden []bool) []archive.Record {
	slides := make([]any, len(proxies))
	for i, p := range proxies {
		slides[i] = ref(p)
	}
	recs := []archive.Record{rec(1, map[string]any{"slideTree": map[string]any{"slides": slides}})}
	for i, p := range proxies {
		recs = append(recs, rec(p, map[string]any{
			"slide":    ref(trueIDs[i]),
			"isHidden": hidden[i],
			"depth":    depths[i],
		}))
	}
	return recs
}

func TestDocument_BuildResolvesProxies(t *testing.T) {
	doc := NewDocument(nil)
	err := doc.Build(documentRecords(
		[]uint64{101, 102, 103},
		[]uint64{5, 9, 2},
		[]int{1, 1, 2},
		[]bool{false, false, true},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := doc.Order()
	want := []uint64{5, 9, 2}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}

	tests := []struct {
		id     uint64
		number int
		depth  int
		hidden bool
	}{
		{5, 1, 1, false},
		{9, 2, 1, false},
		{2, 3, 2, true},
	}
	for _, tt := range tests {
		f, ok := doc.Flags(tt.id)
		if !ok {
			t.Fatalf("no flags for %d", tt.id)
		}
		if f.Number != tt.number || f.Depth != tt.depth || f.Hidden != tt.hidden {
			t.Errorf("slide %d: expected {%d %d %v}, got {%d %d %v}",
				tt.id, tt.number, tt.depth, tt.hidden, f.Number, f.Depth, f.Hidden)
		}
	}
}

func TestDocument_SlideNumbersFollowOrder(t *testing.T) {
	const k = 12
	var proxies, ids []uint64
	var depths []int
	var hidden []bool
	for i := 0; i < k; i++ {
		proxies = append(proxies, uint64(1000+i))
		ids = append(ids, uint64(50-i))
		depths = append(depths, 1)
		hidden = append(hidden, false)
	}
	doc := NewDocument(nil)
	if err := doc.Build(documentRecords(proxies, ids, depths, hidden)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, id := range doc.Order() {
		f, _ := doc.Flags(id)
		if f.Number != i+1 {
			t.Errorf("slide %d at position %d: expected number %d, got %d", id, i+1, i+1, f.Number)
		}
	}
}

func TestDocument_UnresolvedProxy(t *testing.T) {
	recs := documentRecords([]uint64{101}, []uint64{5}, []int{1}, []bool{false})
	recs[0] = rec(1, map[string]any{"slideTree": map[string]any{"slides": []any{ref(101), ref(777)}}})

	err := NewDocument(nil).Build(recs)
	var lerr *LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if lerr.Kind != "proxy" || lerr.Key != "777" {
		t.Errorf("expected proxy 777, got %s %s", lerr.Kind, lerr.Key)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to unwrap to ErrNotFound")
	}
}

func TestDocument_LastSlideTreeWins(t *testing.T) {
	recs := documentRecords([]uint64{101, 102}, []uint64{5, 9}, []int{1, 1}, []bool{false, false})
	recs = append(recs, rec(2, map[string]any{"slideTree": map[string]any{"slides": []any{ref(102)}}}))

	doc := NewDocument(nil)
	if err := doc.Build(recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order := doc.Order(); len(order) != 1 || order[0] != 9 {
		t.Errorf("expected order [9], got %v", order)
	}
}

func TestDocument_AddSlideAndSlides(t *testing.T) {
	doc := NewDocument(nil)
	if err := doc.Build(documentRecords([]uint64{101, 102}, []uint64{5, 9}, []int{1, 2}, []bool{false, false})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := doc.AddSlide([]archive.Record{text(9, "Second")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Slide 5 never arrived.
	_, err := doc.Slides()
	var lerr *LookupError
	if !errors.As(err, &lerr) || lerr.Kind != "slide" || lerr.Key != "5" {
		t.Fatalf("expected missing slide 5, got %v", err)
	}

	if _, err := doc.AddSlide([]archive.Record{text(5, "First")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slides, err := doc.Slides()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slides) != 2 || slides[0].ID != 5 || slides[1].ID != 9 {
		t.Fatalf("expected slides [5 9], got %v", slides)
	}
	if slides[1].Number != 2 || slides[1].Depth != 2 {
		t.Errorf("expected slide 9 numbered 2 at depth 2, got %d at %d", slides[1].Number, slides[1].Depth)
	}
}

func TestDocument_AddSlideWithoutFlags(t *testing.T) {
	doc := NewDocument(nil)
	_, err := doc.AddSlide([]archive.Record{text(5, "Orphan")})
	var lerr *LookupError
	if !errors.As(err, &lerr) || lerr.Kind != "slide flags" {
		t.Fatalf("expected slide flags LookupError, got %v", err)
	}
}

func TestDocument_Empty(t *testing.T) {
	doc := NewDocument(nil)
	if err := doc.Build(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slides, err := doc.Slides()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slides) != 0 {
		t.Errorf("expected no slides, got %d", len(slides))
	}
}

func TestSlide_RenderHeading(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{Flags{Depth: 1, Number: 3}, "# 3: Title\n\nBody"},
		{Flags{Depth: 2}, "## Title\n\nBody"},
		{Flags{}, "# Title\n\nBody"},
	}
	for _, tt := range tests {
		s, err := NewSlide([]archive.Record{text(5, "Title"), text(5, "Body")}, tt.flags, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := s.Render(); got != tt.want {
			t.Errorf("flags %+v: expected %q, got %q", tt.flags, tt.want, got)
		}
	}
}

func TestSlide_TitleIsSingleLine(t *testing.T) {
	s, err := NewSlide([]archive.Record{text(5, "Big\nIdea", "\n\nhere")}, Flags{Depth: 1, Number: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	title, err := s.Title()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(title, "\n\n") {
		t.Errorf("title contains a paragraph break: %q", title)
	}
	if !strings.HasPrefix(title, "Big Idea") {
		t.Errorf("expected title to start with %q, got %q", "Big Idea", title)
	}
}

func TestSlide_TitleOfEmptySlide(t *testing.T) {
	s, err := NewSlide([]archive.Record{rec(5, map[string]any{"shape": "box"})}, Flags{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Title(); !errors.Is(err, ErrEmptySlide) {
		t.Errorf("expected ErrEmptySlide, got %v", err)
	}
	if got := s.Render(); got != "# " {
		t.Errorf("expected bare heading, got %q", got)
	}
}

func TestSlide_NotesAndEquationsRender(t *testing.T) {
	s, err := NewSlide([]archive.Record{
		text(5, "Title"),
		equation(5, `a+b`),
		note(5, "Mention the proof"),
	}, Flags{Depth: 1, Number: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# 1: Title\n\n$a+b$\n\n**NOTES:**\nMention the proof"
	if got := s.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	eqs := s.Equations()
	if len(eqs) != 1 || eqs[0].Index != 1 {
		t.Errorf("expected one equation with index 1, got %+v", eqs)
	}
}

func TestSlide_SplicesEquationsInOrder(t *testing.T) {
	s, err := NewSlide([]archive.Record{
		text(5, "Title"),
		text(5, "First "+ph+" then "+ph+" and "+ph+"."),
		equation(5, "E_1"),
		equation(5, "E_2"),
		equation(5, "E_3"),
		text(5, "After"),
	}, Flags{Depth: 1, Number: 4}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# 4: Title\n\nFirst $E_1$ then $E_2$ and $E_3$.\n\nAfter"
	if got := s.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	for _, eq := range []string{"$E_1$", "$E_2$", "$E_3$"} {
		if n := strings.Count(s.Render(), eq); n != 1 {
			t.Errorf("expected %s exactly once, got %d", eq, n)
		}
	}
}

func TestSlide_SpliceAcrossTextBlocks(t *testing.T) {
	s, err := NewSlide([]archive.Record{
		text(5, "Title"),
		equation(5, "x"),
		text(5, "One "+ph),
		text(5, "Two "+ph),
		equation(5, "y"),
	}, Flags{Depth: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# Title\n\nOne $x$\n\nTwo $y$"
	if got := s.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSlide_EquationDeficitLeavesPlaceholder(t *testing.T) {
	s, err := NewSlide([]archive.Record{
		text(5, "Title"),
		text(5, "A "+ph+" B "+ph),
		equation(5, "z"),
	}, Flags{Depth: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# Title\n\nA $z$ B " + ph
	if got := s.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSlide_EquationTitleIsKept(t *testing.T) {
	s, err := NewSlide([]archive.Record{
		equation(5, "q"),
		text(5, "Uses "+ph),
	}, Flags{Depth: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# $q$\n\nUses $q$"
	if got := s.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSlide_String(t *testing.T) {
	long := strings.Repeat("x", 40)
	tests := []struct {
		title  string
		number int
		want   string
	}{
		{"Intro", 2, "<Slide 2: 'Intro'>"},
		{"Intro", 0, "<Slide: 'Intro'>"},
		{long, 1, "<Slide 1: '" + strings.Repeat("x", 32) + "...'>"},
		{"Two" + content.LineSeparator + "Lines", 1, "<Slide 1: 'Two Lines'>"},
	}
	for _, tt := range tests {
		s, err := NewSlide([]archive.Record{text(5, tt.title)}, Flags{Number: tt.number}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := s.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestSlide_SpliceWarningLoggedOncePerRender(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	doc := NewDocument(log)
	if err := doc.Build(documentRecords([]uint64{101}, []uint64{5}, []int{1}, []bool{false})); err != nil {
		t.Fatalf("build: %v", err)
	}
	s, err := doc.AddSlide([]archive.Record{
		text(5, "Title"),
		equation(5, "x"),
		text(5, "a "+ph+" b "+ph),
	})
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	if got := strings.Count(buf.String(), "placeholder has no equation left"); got != 0 {
		t.Fatalf("expected no splice warning before rendering, got %d", got)
	}

	_ = s.String()
	if _, err := s.Title(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := s.Render(), "# 1: Title\n\na $x$ b "+ph; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := strings.Count(buf.String(), "placeholder has no equation left"); got != 1 {
		t.Errorf("expected one splice warning per render, got %d:\n%s", got, buf.String())
	}
}
