// Package config loads the dotfix configuration: YAML settings for the
// engine itself, CUE manifests describing the declared resources, and
// Starlark "when" expressions that gate individual declarations on host
// facts.
//
// Parsed configuration is published through a Handle. Readers take an
// immutable Snapshot; reloads build a fresh snapshot and swap it in
// wholesale, so a run never observes a half-updated manifest.
package config
