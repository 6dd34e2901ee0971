package config

import "fmt"

// Manifest is the set of desired-state declarations for one machine,
// decoded from the CUE sources.
type Manifest struct {
	// Links are symlink declarations.
	Links []LinkDecl `json:"links,omitempty"`

	// Packages are system package declarations.
	Packages []PackageDecl `json:"packages,omitempty"`

	// Permissions are file mode declarations.
	Permissions []PermissionDecl `json:"permissions,omitempty"`

	// Services are service declarations.
	Services []ServiceDecl `json:"services,omitempty"`

	// Extensions are editor extension declarations.
	Extensions []ExtensionDecl `json:"extensions,omitempty"`
}

// LinkDecl declares a symlink from Target to Source.
type LinkDecl struct {
	// Source is the file the link points at, relative to the manifest's
	// directory or absolute.
	Source string `json:"source" validate:"required"`

	// Target is the path of the symlink itself.
	Target string `json:"target" validate:"required"`

	// When is an optional applicability expression evaluated against facts.
	When string `json:"when,omitempty"`
}

// PackageDecl declares a system package that must be installed.
type PackageDecl struct {
	// Name is the package name.
	Name string `json:"name" validate:"required"`

	// When is an optional applicability expression evaluated against facts.
	When string `json:"when,omitempty"`
}

// PermissionDecl declares the mode a file must carry.
type PermissionDecl struct {
	// Path is the file whose mode is managed.
	Path string `json:"path" validate:"required"`

	// Mode is the octal mode string, e.g. "0600".
	Mode string `json:"mode" validate:"required"`

	// When is an optional applicability expression evaluated against facts.
	When string `json:"when,omitempty"`
}

// ServiceDecl declares a service that must be enabled.
type ServiceDecl struct {
	// Name is the service unit name.
	Name string `json:"name" validate:"required"`

	// When is an optional applicability expression evaluated against facts.
	When string `json:"when,omitempty"`
}

// ExtensionDecl declares an editor extension that must be installed.
type ExtensionDecl struct {
	// ID is the extension identifier, e.g. "golang.go".
	ID string `json:"id" validate:"required"`

	// Editor is the editor command, defaulting to "code".
	Editor string `json:"editor,omitempty"`

	// When is an optional applicability expression evaluated against facts.
	When string `json:"when,omitempty"`
}

// Counts returns the number of declarations per kind, for log lines.
func (m *Manifest) Counts() map[string]int {
	return map[string]int{
		"links":       len(m.Links),
		"packages":    len(m.Packages),
		"permissions": len(m.Permissions),
		"services":    len(m.Services),
		"extensions":  len(m.Extensions),
	}
}

// ValidationError describes one problem found while parsing or validating a
// manifest source.
type ValidationError struct {
	// File is the source file, when known.
	File string `json:"file,omitempty"`

	// Line is the 1-based line number, when known.
	Line int `json:"line,omitempty"`

	// Column is the 1-based column number, when known.
	Column int `json:"column,omitempty"`

	// Path is the manifest path, e.g. "links[2]".
	Path string `json:"path,omitempty"`

	// Message is the human-readable problem description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	default:
		return e.Message
	}
}
