// Package config loads, validates, and defaults the storyforge TOML
// configuration, with environment overrides for deployment knobs.
package config
