// Package batch drives work items through the coordinator in bounded
// batches with backpressure pauses between them.
package batch
