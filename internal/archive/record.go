package archive

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one decoded archive: a loosely typed mapping with a "header"
// section carrying the object identifier and an "objects" sequence whose
// first element holds the archive's named fields.
type Record map[string]any

// Fields is a mapping of named fields inside a record.
type Fields map[string]any

// Identifier returns header.identifier.
func (r Record) Identifier() (uint64, error) {
	header := asFields(r["header"])
	if header == nil {
		return 0, fmt.Errorf("record has no header")
	}
	id, err := toUint(header["identifier"])
	if err != nil {
		return 0, fmt.Errorf("header identifier: %w", err)
	}
	return id, nil
}

// Object returns objects[0], or nil when the record carries no objects.
func (r Record) Object() Fields {
	objs, ok := r["objects"].([]any)
	if !ok || len(objs) == 0 {
		return nil
	}
	return asFields(objs[0])
}

// Has reports whether the field is present, whatever its value.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Map returns a nested mapping field, or nil.
func (f Fields) Map(name string) Fields {
	return asFields(f[name])
}

// List returns a sequence field, or nil.
func (f Fields) List(name string) []any {
	switch v := f[name].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	return nil
}

// Strings returns the string elements of a sequence field in order.
// Non-string elements are skipped.
func (f Fields) Strings(name string) []string {
	list := f.List(name)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// String returns a string field, or "" when absent or not a string.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Bool returns a boolean field. Strings "true"/"false" are accepted.
func (f Fields) Bool(name string) bool {
	switch v := f[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Int returns an integer field and whether it was present and numeric.
func (f Fields) Int(name string) (int, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	n, err := toUint(v)
	if err != nil || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// Ref returns the identifier of a reference field shaped {identifier: N}.
func (f Fields) Ref(name string) (uint64, error) {
	ref := f.Map(name)
	if ref == nil {
		return 0, fmt.Errorf("field %q is not a reference", name)
	}
	return ref.Identifier()
}

// Refs returns the identifiers of a sequence of references, in order.
func (f Fields) Refs(name string) ([]uint64, error) {
	list := f.List(name)
	ids := make([]uint64, 0, len(list))
	for i, v := range list {
		ref := asFields(v)
		if ref == nil {
			return nil, fmt.Errorf("%s[%d] is not a reference", name, i)
		}
		id, err := ref.Identifier()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Identifier returns the "identifier" field of a reference mapping.
func (f Fields) Identifier() (uint64, error) {
	return toUint(f["identifier"])
}

func asFields(v any) Fields {
	switch m := v.(type) {
	case Fields:
		return m
	case map[string]any:
		return Fields(m)
	case Record:
		return Fields(m)
	case map[any]any:
		out := make(Fields, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

// toUint accepts the numeric shapes produced by the YAML and JSON decoders,
// plus decimal strings (protobuf uint64 values are serialised as strings).
func toUint(v any) (uint64, error) {
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return uint64(n), nil
		}
	case int64:
		if n >= 0 {
			return uint64(n), nil
		}
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case float64:
		if n >= 0 && n == math.Trunc(n) {
			return uint64(n), nil
		}
	case json.Number:
		return strconv.ParseUint(n.String(), 10, 64)
	case string:
		return strconv.ParseUint(strings.TrimSpace(n), 10, 64)
	case nil:
		return 0, fmt.Errorf("missing identifier")
	}
	return 0, fmt.Errorf("not an identifier: %v", v)
}
