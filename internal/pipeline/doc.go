// Package pipeline implements the staged experimental generation path: a
// fixed ordered sequence of backend-calling transformations over a single
// run context.
package pipeline
