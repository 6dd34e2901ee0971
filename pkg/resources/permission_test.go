package resources

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dotfix-sh/dotfix/pkg/engine"
)

func TestNewPermissionResource_BadMode(t *testing.T) {
	if _, err := NewPermissionResource("/tmp/f", "worldwritable"); err == nil {
		t.Fatal("Expected error for a non-octal mode")
	}
	if _, err := NewPermissionResource("/tmp/f", "0999"); err == nil {
		t.Fatal("Expected error for out-of-range octal digits")
	}
}

func TestPermissionResource_ReconcilesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	r, err := NewPermissionResource(path, "0600")
	if err != nil {
		t.Fatalf("NewPermissionResource failed: %v", err)
	}

	state, err := r.CurrentState()
	if err != nil {
		t.Fatalf("CurrentState failed: %v", err)
	}
	if state.Kind != engine.StateIncorrect {
		t.Errorf("Expected incorrect state for mode 0644, got %s", state.Kind)
	}

	if _, err := r.Apply(); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	state, err = r.CurrentState()
	if err != nil {
		t.Fatalf("CurrentState after apply failed: %v", err)
	}
	if state.Kind != engine.StateCorrect {
		t.Errorf("Expected correct state after apply, got %s", state.Kind)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %04o", info.Mode().Perm())
	}
}

func TestPermissionResource_MissingPathIsInvalid(t *testing.T) {
	r, err := NewPermissionResource(filepath.Join(t.TempDir(), "absent"), "0600")
	if err != nil {
		t.Fatalf("NewPermissionResource failed: %v", err)
	}

	state, err := r.CurrentState()
	if err != nil {
		t.Fatalf("CurrentState failed: %v", err)
	}
	if state.Kind != engine.StateInvalid {
		t.Errorf("Expected invalid state for a missing path, got %s", state.Kind)
	}
}

func TestPermissionResource_RemoveUnsupported(t *testing.T) {
	r, err := NewPermissionResource("/tmp/f", "0600")
	if err != nil {
		t.Fatalf("NewPermissionResource failed: %v", err)
	}

	if _, err := r.Remove(); !errors.Is(err, engine.ErrRemoveUnsupported) {
		t.Errorf("Expected ErrRemoveUnsupported, got %v", err)
	}
}
