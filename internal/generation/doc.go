// Package generation coordinates the baseline and experimental paths: path
// selection, execution, validation, fallback, and session recording for each
// work item.
package generation
