// Package services provides the shared error taxonomy and context annotation
// helpers used across the generation pipeline.
package services
