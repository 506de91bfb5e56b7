// Package keynote rebuilds a presentation's slide order and slide content
// from its decoded archive records.
package keynote

import (
	"fmt"
	"log/slog"

	"github.com/chumsley/keynote-summary/internal/archive"
)

// Document owns a presentation's slides and their order.
//
// The slide tree lists proxy identifiers. Each proxy is resolved to the
// slide's true identifier through a separate document-level slide record,
// which also carries the slide's flags. Both mappings are complete before
// any slide is added, since slide numbers come from the resolved order.
type Document struct {
	slides map[uint64]*Slide
	order  []uint64
	flags  map[uint64]*Flags
	log    *slog.Logger
}

// NewDocument returns an empty document.
func NewDocument(log *slog.Logger) *Document {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Document{
		slides: make(map[uint64]*Slide),
		flags:  make(map[uint64]*Flags),
		log:    log,
	}
}

// Build reads the document-level records, resolving the slide order and
// numbering each slide in it.
func (d *Document) Build(recs []archive.Record) error {
	var tree []uint64
	proxies := make(map[uint64]uint64)
	d.flags = make(map[uint64]*Flags)

	for _, rec := range recs {
		f := rec.Object()
		if f == nil {
			continue
		}
		if f.Has("slideTree") {
			ids, err := f.Map("slideTree").Refs("slides")
			if err != nil {
				return fmt.Errorf("slide tree: %w", err)
			}
			if tree != nil {
				d.log.Warn("multiple slide trees, using the last", "slides", len(ids))
			}
			tree = ids
		}
		if f.Has("slide") {
			proxy, err := rec.Identifier()
			if err != nil {
				return fmt.Errorf("slide record: %w", err)
			}
			id, err := f.Ref("slide")
			if err != nil {
				return fmt.Errorf("slide record %d: %w", proxy, err)
			}
			depth, _ := f.Int("depth")
			proxies[proxy] = id
			d.flags[id] = &Flags{Hidden: f.Bool("isHidden"), Depth: depth}
		}
	}

	order := make([]uint64, 0, len(tree))
	for i, proxy := range tree {
		id, ok := proxies[proxy]
		if !ok {
			return lookupID("proxy", proxy)
		}
		order = append(order, id)
		d.flags[id].Number = i + 1
	}
	d.order = order
	d.log.Debug("resolved slide order", "slides", len(order), "records", len(proxies))
	return nil
}

// AddSlide classifies the records of one slide and stores the slide under
// its identifier.
func (d *Document) AddSlide(recs []archive.Record) (*Slide, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("add slide: no records")
	}
	id, err := recs[0].Identifier()
	if err != nil {
		return nil, fmt.Errorf("add slide: %w", err)
	}
	flags, ok := d.flags[id]
	if !ok {
		return nil, lookupID("slide flags", id)
	}
	s, err := NewSlide(recs, *flags, d.log)
	if err != nil {
		return nil, fmt.Errorf("add slide %d: %w", id, err)
	}
	d.slides[id] = s
	d.log.Debug("added slide", "slide", s.ID, "objects", len(s.objects))
	return s, nil
}

// Order returns the true slide identifiers in presentation order.
func (d *Document) Order() []uint64 {
	return d.order
}

// Flags returns the flags recorded for a slide identifier.
func (d *Document) Flags(id uint64) (Flags, bool) {
	f, ok := d.flags[id]
	if !ok {
		return Flags{}, false
	}
	return *f, true
}

// Slides returns the slides in presentation order. Every slide in the order
// must have been added.
func (d *Document) Slides() ([]*Slide, error) {
	out := make([]*Slide, 0, len(d.order))
	for _, id := range d.order {
		s, ok := d.slides[id]
		if !ok {
			return nil, lookupID("slide", id)
		}
		out = append(out, s)
	}
	return out, nil
}
