// Package model defines the immutable parsed representation of a template:
// an ordered sequence of structural events plus the descriptor of the
// template they were parsed from. Models are assembled through a Builder and
// frozen on Build; afterwards they are shared read-only between concurrent
// callers and caches.
package model
