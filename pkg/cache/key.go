package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// Key identifies a cached model. Two keys are equal when their canonical
// strings match: selector order and attribute insertion order are ignored,
// fragment offsets are not.
type Key struct {
	Owner      string
	Template   string
	Selectors  []string
	Line       int
	Col        int
	Mode       template.Mode
	Attributes map[string]any

	id string
}

// NewKey derives the cache key for ref. Blank selectors are dropped so the
// function never fails; callers validate selectors beforehand.
func NewKey(ref template.Reference) Key {
	key := Key{
		Owner:     ref.Owner,
		Template:  ref.Name,
		Selectors: template.CanonicalSelectors(ref.Selectors),
		Line:      ref.Line,
		Col:       ref.Col,
		Mode:      ref.Mode,
	}
	if len(ref.Attributes) > 0 {
		key.Attributes = make(map[string]any, len(ref.Attributes))
		for name, value := range ref.Attributes {
			key.Attributes[name] = value
		}
	}
	key.id = key.canonical()
	return key
}

// String returns the canonical encoding of the key.
func (k Key) String() string {
	if k.id == "" {
		return k.canonical()
	}
	return k.id
}

// Equal reports whether both keys identify the same cache entry.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// Standalone reports whether the key belongs to a top-level template.
func (k Key) Standalone() bool {
	return k.Owner == ""
}

func (k Key) canonical() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(k.Owner))
	b.WriteByte('|')
	b.WriteString(strconv.Quote(k.Template))
	b.WriteByte('|')
	if len(k.Selectors) == 0 {
		b.WriteString("-")
	} else {
		for i, selector := range k.Selectors {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(selector))
		}
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.Line))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(k.Col))
	b.WriteByte('|')
	b.WriteString(string(k.Mode))
	b.WriteByte('|')
	b.WriteString(canonicalAttributes(k.Attributes))
	return b.String()
}

func canonicalAttributes(attrs map[string]any) string {
	if len(attrs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, strconv.Quote(name)+"="+canonicalValue(attrs[name]))
	}
	return strings.Join(parts, ",")
}

// canonicalValue encodes value through its generic JSON form so a struct and
// the map it decodes to produce the same string.
func canonicalValue(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%#v", value)
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return string(encoded)
	}
	if normalized, err := json.Marshal(generic); err == nil {
		return string(normalized)
	}
	return string(encoded)
}

type keyWire struct {
	Owner      string         `json:"owner,omitempty"`
	Template   string         `json:"template"`
	Selectors  []string       `json:"selectors,omitempty"`
	Line       int            `json:"line,omitempty"`
	Col        int            `json:"col,omitempty"`
	Mode       template.Mode  `json:"mode,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// MarshalJSON encodes the key fields; the canonical id is recomputed on decode.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyWire{
		Owner:      k.Owner,
		Template:   k.Template,
		Selectors:  k.Selectors,
		Line:       k.Line,
		Col:        k.Col,
		Mode:       k.Mode,
		Attributes: k.Attributes,
	})
}

// UnmarshalJSON decodes a key produced by MarshalJSON.
func (k *Key) UnmarshalJSON(data []byte) error {
	var wire keyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*k = NewKey(template.Reference{
		Owner:      wire.Owner,
		Name:       wire.Template,
		Selectors:  wire.Selectors,
		Line:       wire.Line,
		Col:        wire.Col,
		Mode:       wire.Mode,
		Attributes: wire.Attributes,
	})
	return nil
}
