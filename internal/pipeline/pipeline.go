package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chumsley/keynote-summary/internal/archive"
	"github.com/chumsley/keynote-summary/internal/config"
	"github.com/chumsley/keynote-summary/internal/keynote"
	"github.com/chumsley/keynote-summary/internal/render"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

const (
	// DocumentEntry holds the slide tree and per-slide flags.
	DocumentEntry = "Index/Document.iwa"

	slidePrefix = "Index/Slide"
	slideSuffix = ".iwa"
)

// IsSlideEntry reports whether a logical entry name holds one slide.
func IsSlideEntry(name string) bool {
	return strings.HasPrefix(name, slidePrefix) && strings.HasSuffix(name, slideSuffix)
}

// Pipeline rebuilds and renders one packaged document at a time.
type Pipeline struct {
	cfg config.Config
	log *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, log: log}
}

// Result is one rendering of a document.
type Result struct {
	Body        []byte
	Format      render.Format
	Slides      int
	Fingerprint string
}

// Run loads the document from src and renders it in the configured format.
func (p *Pipeline) Run(ctx context.Context, src archive.Source, title string) (*Result, error) {
	format, err := render.ParseFormat(p.cfg.Format)
	if err != nil {
		return nil, err
	}
	doc, err := p.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return p.Render(doc, format, title)
}

// Load lists the package entries, decodes the document and slide entries
// and rebuilds the document from them.
func (p *Pipeline) Load(ctx context.Context, src archive.Source) (*keynote.Document, error) {
	// Phase 1: List
	entries, err := src.Entries()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	var docEntry *archive.Entry
	var slideEntries []archive.Entry
	for i, e := range entries {
		switch {
		case e.Name == DocumentEntry:
			docEntry = &entries[i]
		case IsSlideEntry(e.Name):
			slideEntries = append(slideEntries, e)
		}
	}
	p.log.Info("listed entries", "entries", len(entries), "slides", len(slideEntries))

	doc := keynote.NewDocument(p.log)
	if docEntry == nil {
		if len(slideEntries) > 0 {
			p.log.Warn("no document entry, skipping slides", "entry", DocumentEntry, "slides", len(slideEntries))
		}
		return doc, nil
	}

	// Phase 2: Decode. Entries are independent, so they decode in parallel;
	// results keep entry order.
	jobs := append([]archive.Entry{*docEntry}, slideEntries...)
	decoded := make([][]archive.Record, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.DecodeWorkers, 1))
	for i, e := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := e.Records()
			if err != nil {
				return fmt.Errorf("decode %s: %w", e.Name, err)
			}
			decoded[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 3: Build
	if err := doc.Build(decoded[0]); err != nil {
		return nil, fmt.Errorf("build %s: %w", DocumentEntry, err)
	}
	for i, e := range slideEntries {
		recs := decoded[i+1]
		if len(recs) == 0 {
			p.log.Warn("slide entry has no records", "entry", e.Name)
			continue
		}
		if _, err := doc.AddSlide(recs); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
	}
	p.log.Info("built document", "slides", len(doc.Order()))
	return doc, nil
}

// Render produces the document in the given format. The fingerprint is
// taken over the markdown rendering; with fingerprinting enabled it is
// also appended to markdown output as a trailer.
func (p *Pipeline) Render(doc *keynote.Document, format render.Format, title string) (*Result, error) {
	opts := render.Options{SkipHidden: p.cfg.SkipHidden}
	slides, err := render.Slides(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	md, err := render.Markdown(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res := &Result{Format: format, Slides: len(slides), Fingerprint: Fingerprint(md)}

	switch format {
	case render.FormatMarkdown:
		if p.cfg.Fingerprint {
			md = render.AppendTrailer(md, TrailerLine(res.Fingerprint))
		}
		if md != "" {
			md += "\n"
		}
		res.Body = []byte(md)
	case render.FormatHTML:
		res.Body, err = render.HTML(md, title)
	case render.FormatDOCX:
		var buf bytes.Buffer
		err = render.DOCX(&buf, render.Outline(title, slides))
		res.Body = buf.Bytes()
	case render.FormatOutline:
		res.Body, err = json.MarshalIndent(render.Outline(title, slides), "", "  ")
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PathArchives returns the decoded records of one named entry.
func PathArchives(src archive.Source, name string) ([]archive.Record, error) {
	entries, err := src.Entries()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Records()
		}
	}
	return nil, &keynote.LookupError{Kind: "entry", Key: name}
}

// Fingerprint hashes NFC-normalised text so equivalent renderings of
// differently composed text compare equal.
func Fingerprint(text string) string {
	h := sha256.Sum256([]byte(norm.NFC.String(text)))
	return fmt.Sprintf("sha256:%x", h[:])
}

// TrailerLine is the markdown trailer carrying a fingerprint. It is an HTML
// comment so it stays invisible when the markdown is displayed.
func TrailerLine(fingerprint string) string {
	return "<!-- fingerprint: " + fingerprint + " -->"
}
