// Package engine ties resolution, caching, parsing and processing together.
//
// An Engine owns one immutable configuration: the resolver chain, the
// optional model cache, the parser table and the stage registry. Models are
// stamped with the engine origin so they cannot be processed by an engine
// with a different configuration.
package engine
