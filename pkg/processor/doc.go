// Package processor provides the default stages of the processing chain: the
// core inlining processor, the output stage serializing events to a writer,
// a whitespace-trimming pre-processor and a sanitizing post-processor.
package processor
