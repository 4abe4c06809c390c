// Package pipeline builds and runs the per-call processing chain: zero or
// more pre-processors, one core processor, zero or more post-processors and
// the terminal output stage. It also owns the EngineContext lifecycle so the
// context is disposed on every exit path of a processing call.
package pipeline
