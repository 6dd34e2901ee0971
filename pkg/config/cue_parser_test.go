package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleManifest = `
links: [
	{source: "vimrc", target: "~/.vimrc"},
	{source: "gitconfig", target: "~/.gitconfig", when: "os == \"linux\""},
]
packages: [
	{name: "ripgrep"},
	{name: "fzf"},
]
permissions: [
	{path: "~/.ssh/config", mode: "0600"},
]
`

func TestParser_ParseInline(t *testing.T) {
	p := NewParser()

	m, err := p.ParseInline(context.Background(), sampleManifest)
	if err != nil {
		t.Fatalf("ParseInline failed: %v", err)
	}

	if len(m.Links) != 2 {
		t.Errorf("Expected 2 links, got %d", len(m.Links))
	}
	if len(m.Packages) != 2 {
		t.Errorf("Expected 2 packages, got %d", len(m.Packages))
	}
	if m.Links[0].Source != "vimrc" || m.Links[0].Target != "~/.vimrc" {
		t.Errorf("Unexpected first link: %+v", m.Links[0])
	}
	if m.Links[1].When == "" {
		t.Error("Expected when expression to survive decoding")
	}
	if m.Permissions[0].Mode != "0600" {
		t.Errorf("Unexpected permission mode: %q", m.Permissions[0].Mode)
	}
}

func TestParser_ParseInline_MissingRequiredField(t *testing.T) {
	p := NewParser()

	_, err := p.ParseInline(context.Background(), `links: [{source: "vimrc"}]`)
	if err == nil {
		t.Fatal("Expected error for a link without a target")
	}
	if !strings.Contains(err.Error(), "links[0]") {
		t.Errorf("Expected declaration path in error, got: %v", err)
	}
}

func TestParser_ParseInline_BadSyntax(t *testing.T) {
	p := NewParser()

	if _, err := p.ParseInline(context.Background(), `links: [{source:`); err == nil {
		t.Fatal("Expected error for malformed CUE")
	}
}

func TestParser_ParseManifest_UnifiesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "links.cue"), `links: [{source: "vimrc", target: "~/.vimrc"}]`)
	writeFile(t, filepath.Join(dir, "packages.cue"), `packages: [{name: "jq"}]`)

	p := NewParser()
	m, err := p.ParseManifest(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	if len(m.Links) != 1 || len(m.Packages) != 1 {
		t.Errorf("Expected declarations from both files, got %+v", m.Counts())
	}
}

func TestParser_ParseManifest_MissingSource(t *testing.T) {
	p := NewParser()

	if _, err := p.ParseManifest(context.Background(), []string{"/does/not/exist.cue"}); err == nil {
		t.Fatal("Expected error for a missing source")
	}
}

func TestParser_ParseManifest_NoSources(t *testing.T) {
	p := NewParser()

	if _, err := p.ParseManifest(context.Background(), nil); err == nil {
		t.Fatal("Expected error for an empty source list")
	}
}

func TestExpandSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.cue"), `links: []`)
	writeFile(t, filepath.Join(dir, "b.cue"), `packages: []`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `ignored`)

	sources, err := ExpandSources([]string{dir})
	if err != nil {
		t.Fatalf("ExpandSources failed: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 manifest files, got %v", sources)
	}
	for _, s := range sources {
		if !filepath.IsAbs(s) {
			t.Errorf("Expected absolute path, got %q", s)
		}
		if !strings.HasSuffix(s, ".cue") {
			t.Errorf("Expected only .cue files, got %q", s)
		}
	}
}

func TestExpandSources_Empty(t *testing.T) {
	if _, err := ExpandSources([]string{t.TempDir()}); err == nil {
		t.Fatal("Expected error when no manifest files are found")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
