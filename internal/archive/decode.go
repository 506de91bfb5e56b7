package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupported is returned for entries no registered decoder can read.
var ErrUnsupported = errors.New("unsupported entry format")

// Decoder turns one entry's bytes into its archive records.
type Decoder interface {
	Decode(r io.Reader) ([]Record, error)
}

// unpacked is the layout keynote-parser writes when it unpacks an IWA
// file: a list of chunks, each holding its archives. Only the first chunk
// is consumed.
type unpacked struct {
	Chunks []struct {
		Archives []map[string]any `yaml:"archives" json:"archives"`
	} `yaml:"chunks" json:"chunks"`
}

func (u unpacked) records() []Record {
	if len(u.Chunks) == 0 {
		return nil
	}
	archives := u.Chunks[0].Archives
	out := make([]Record, len(archives))
	for i, a := range archives {
		out[i] = Record(a)
	}
	return out
}

// YAMLDecoder reads unpacked .iwa.yaml entries.
type YAMLDecoder struct{}

func (YAMLDecoder) Decode(r io.Reader) ([]Record, error) {
	var doc unpacked
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.records(), nil
}

// JSONDecoder reads unpacked .iwa.json entries.
type JSONDecoder struct{}

func (JSONDecoder) Decode(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc unpacked
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc.records(), nil
}

// binaryDecoder stands in for the snappy/protobuf IWA reader, which lives
// outside this module.
type binaryDecoder struct{}

func (binaryDecoder) Decode(io.Reader) ([]Record, error) {
	return nil, fmt.Errorf("binary iwa: %w (unpack the document with keynote-parser first)", ErrUnsupported)
}

// decoders maps physical suffixes to the decoder for that encoding. The
// suffix is stripped to form the logical entry name.
var decoders = []struct {
	suffix  string
	decoder Decoder
}{
	{".iwa.yaml", YAMLDecoder{}},
	{".iwa.yml", YAMLDecoder{}},
	{".iwa.json", JSONDecoder{}},
}

// Resolve maps a physical entry name to its logical name and decoder.
// Entries that are not archives get a nil decoder.
func Resolve(physical string) (string, Decoder) {
	lower := strings.ToLower(physical)
	for _, d := range decoders {
		if strings.HasSuffix(lower, d.suffix) {
			return physical[:len(physical)-len(d.suffix)+len(".iwa")], d.decoder
		}
	}
	if strings.HasSuffix(lower, ".iwa") {
		return physical, binaryDecoder{}
	}
	return physical, nil
}
