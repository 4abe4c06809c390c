package template

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptySelector is returned when a selector set contains a blank entry.
var ErrEmptySelector = errors.New("template: selectors cannot contain empty entries")

// Reference is the logical identity of a template before resolution.
type Reference struct {
	// Owner names the template that contains this one. Empty for top-level
	// templates.
	Owner string
	// Name is the template name handed to the resolvers.
	Name string
	// Selectors restrict which fragments of the template are parsed. Order is
	// irrelevant.
	Selectors []string
	// Line and Col locate inline fragments inside their owner. Always zero for
	// standalone templates.
	Line int
	Col  int
	// Mode forces a template mode. Zero means "use the resolver's".
	Mode Mode
	// Attributes are passed verbatim to resolvers.
	Attributes map[string]any
}

// NormalizeSelectors returns the canonical form of a selector set: nil when
// there are no selectors, otherwise a sorted, duplicate-free copy.
func NormalizeSelectors(selectors []string) ([]string, error) {
	if len(selectors) == 0 {
		return nil, nil
	}
	for _, selector := range selectors {
		if strings.TrimSpace(selector) == "" {
			return nil, ErrEmptySelector
		}
	}
	return canonicalSelectors(selectors), nil
}

// CanonicalSelectors is the total variant of NormalizeSelectors: blank entries
// are dropped instead of rejected.
func CanonicalSelectors(selectors []string) []string {
	if len(selectors) == 0 {
		return nil
	}
	kept := make([]string, 0, len(selectors))
	for _, selector := range selectors {
		if strings.TrimSpace(selector) != "" {
			kept = append(kept, selector)
		}
	}
	return canonicalSelectors(kept)
}

func canonicalSelectors(selectors []string) []string {
	if len(selectors) == 0 {
		return nil
	}
	if len(selectors) == 1 {
		return []string{selectors[0]}
	}
	out := append([]string(nil), selectors...)
	sort.Strings(out)
	deduped := out[:1]
	for _, selector := range out[1:] {
		if selector != deduped[len(deduped)-1] {
			deduped = append(deduped, selector)
		}
	}
	return deduped
}
