// Package template defines the value types shared by every stage of the
// resolve → cache → parse → process pipeline: template modes, references,
// resources, cache validity policies and the descriptors attached to parsed
// models. Nothing in this package performs I/O; resolvers under
// internal/resolver produce the concrete resources.
package template
