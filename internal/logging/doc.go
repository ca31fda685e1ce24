// Package logging builds the slog loggers used throughout storyforge and
// defines the standardized structured field keys.
package logging
