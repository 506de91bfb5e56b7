package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one named member of a packaged document.
type Entry struct {
	Name    string  // Logical name, e.g. "Index/Document.iwa"
	Path    string  // Physical name inside the package
	Decoder Decoder // nil for members that are not archives

	open func() (io.ReadCloser, error)
}

// Open returns the entry's byte stream.
func (e Entry) Open() (io.ReadCloser, error) {
	return e.open()
}

// Records reads and decodes the entry.
func (e Entry) Records() ([]Record, error) {
	if e.Decoder == nil {
		return nil, fmt.Errorf("%s: %w", e.Path, ErrUnsupported)
	}
	rc, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.Path, err)
	}
	defer rc.Close()
	recs, err := e.Decoder.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	return recs, nil
}

// Source lists the named entries of a packaged document.
type Source interface {
	Entries() ([]Entry, error)
	Close() error
}

func newEntry(physical string, open func() (io.ReadCloser, error)) Entry {
	name, dec := Resolve(physical)
	return Entry{Name: name, Path: physical, Decoder: dec, open: open}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

// Open opens a packaged document: a directory bundle or a ZIP file.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenDir(path)
	}
	return OpenZip(path)
}

// ZipSource reads entries from a ZIP package.
type ZipSource struct {
	r      *zip.Reader
	closer io.Closer
}

// OpenZip opens a ZIP package on disk.
func OpenZip(path string) (*ZipSource, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return &ZipSource{r: &zr.Reader, closer: zr}, nil
}

// NewZipSource reads a ZIP package held in memory.
func NewZipSource(r io.ReaderAt, size int64) (*ZipSource, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return &ZipSource{r: zr}, nil
}

func (s *ZipSource) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(s.r.File))
	for _, f := range s.r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		entries = append(entries, newEntry(f.Name, f.Open))
	}
	sortEntries(entries)
	return entries, nil
}

func (s *ZipSource) Close() error {
	if s.closer != nil {
		err := s.closer.Close()
		s.closer = nil
		return err
	}
	return nil
}

// DirSource reads entries from a directory bundle.
type DirSource struct {
	root string
}

// OpenDir opens a directory bundle.
func OpenDir(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}
	return &DirSource{root: root}, nil
}

func (s *DirSource) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		entries = append(entries, newEntry(filepath.ToSlash(rel), func() (io.ReadCloser, error) {
			return os.Open(p)
		}))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	sortEntries(entries)
	return entries, nil
}

func (s *DirSource) Close() error { return nil }
