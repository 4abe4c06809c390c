// Package cache defines the template cache contract, the deterministic cache
// key derived from a template reference and an in-memory LRU backend. The
// cache is optional: engines configured without one simply parse on every
// call.
package cache
