// Package rollout routes work items between the baseline and experimental
// generation paths with deterministic percentage bucketing.
package rollout
