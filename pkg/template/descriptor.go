package template

// Resolution is the output of a successful resolver lookup.
type Resolution struct {
	Resource Resource
	// Mode is the mode the resolver suggests; callers can force another one.
	Mode     Mode
	Validity Validity
}

// Descriptor carries the metadata of a parsed template. It never owns parsed
// content.
type Descriptor struct {
	Name      string
	Selectors []string
	Resource  Resource
	Mode      Mode
	Validity  Validity
}

// HasSelectors reports whether the descriptor restricts parsing to fragments.
func (d Descriptor) HasSelectors() bool {
	return len(d.Selectors) > 0
}

// Cacheable is a nil-safe shortcut for d.Validity.Cacheable().
func (d Descriptor) Cacheable() bool {
	return IsCacheable(d.Validity)
}

// WithMode returns a copy of d using mode and validity.
func (d Descriptor) WithMode(mode Mode, validity Validity) Descriptor {
	clone := d
	clone.Selectors = append([]string(nil), d.Selectors...)
	if len(clone.Selectors) == 0 {
		clone.Selectors = nil
	}
	clone.Mode = mode
	clone.Validity = validity
	return clone
}
