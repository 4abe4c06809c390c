package template

import "time"

// Validity describes whether a resolved template may be cached and, once
// cached, whether the entry is still usable.
type Validity interface {
	Cacheable() bool
	StillValid(cachedAt time.Time) bool
}

type alwaysValid struct{}

func (alwaysValid) Cacheable() bool { return true }
func (alwaysValid) StillValid(time.Time) bool { return true }
func (alwaysValid) String() string { return "always" }

type neverCacheable struct{}

func (neverCacheable) Cacheable() bool { return false }
func (neverCacheable) StillValid(time.Time) bool { return false }
func (neverCacheable) String() string { return "never" }

var (
	// AlwaysValid entries are cacheable and never expire.
	AlwaysValid Validity = alwaysValid{}
	// NeverCacheable entries are never stored.
	NeverCacheable Validity = neverCacheable{}
)

// TTLValidity is cacheable for a fixed duration after insertion.
type TTLValidity struct {
	TTL time.Duration
	now func() time.Time
}

// NewTTLValidity returns a validity expiring ttl after caching. A non-positive
// ttl behaves like AlwaysValid.
func NewTTLValidity(ttl time.Duration) TTLValidity {
	return TTLValidity{TTL: ttl}
}

func (v TTLValidity) Cacheable() bool {
	return true
}

func (v TTLValidity) StillValid(cachedAt time.Time) bool {
	if v.TTL <= 0 {
		return true
	}
	now := time.Now
	if v.now != nil {
		now = v.now
	}
	return now().Before(cachedAt.Add(v.TTL))
}

// CheckValidity delegates the "still valid" decision to the resolver.
type CheckValidity func(cachedAt time.Time) bool

func (fn CheckValidity) Cacheable() bool {
	return true
}

func (fn CheckValidity) StillValid(cachedAt time.Time) bool {
	if fn == nil {
		return true
	}
	return fn(cachedAt)
}

// IsCacheable is a nil-safe Cacheable check.
func IsCacheable(v Validity) bool {
	return v != nil && v.Cacheable()
}
