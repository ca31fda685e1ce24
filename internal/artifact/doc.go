// Package artifact defines the pipeline's output unit, the validation
// contract raw generator output must pass, and the deterministic quality
// scorer.
package artifact
