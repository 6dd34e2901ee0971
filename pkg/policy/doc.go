// Package policy gates runs on Rego policies evaluated against the manifest
// and the host facts. Built-in policies keep a run inside the user's home
// directory and reject suspicious package names; site policies may be loaded
// from .rego files on disk.
package policy
