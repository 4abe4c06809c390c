package model

import "sync/atomic"

var originSeq atomic.Uint64

// Origin identifies the engine configuration a model was built under. Models
// may only be processed by the engine holding the same Origin.
type Origin struct {
	id uint64
}

// NewOrigin allocates a fresh, process-unique Origin.
func NewOrigin() Origin {
	return Origin{id: originSeq.Add(1)}
}

// IsZero reports whether the origin is unset.
func (o Origin) IsZero() bool {
	return o.id == 0
}
