// Package monitor persists per-attempt generation sessions and aggregates
// them into rollback decisions and the baseline/experimental comparison
// report.
package monitor
