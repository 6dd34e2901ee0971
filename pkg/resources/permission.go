package resources

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dotfix-sh/dotfix/pkg/engine"
)

// PermissionResource manages the permission bits of one existing file.
type PermissionResource struct {
	// Path is the file whose mode is managed.
	Path string

	// Mode is the desired permission bits.
	Mode os.FileMode
}

// NewPermissionResource creates a permission resource from an octal mode
// string such as "0600".
func NewPermissionResource(path, mode string) (*PermissionResource, error) {
	parsed, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid mode %q for %s: %w", mode, path, err)
	}
	return &PermissionResource{Path: path, Mode: os.FileMode(parsed).Perm()}, nil
}

// Description implements engine.Resource.
func (r *PermissionResource) Description() string {
	return fmt.Sprintf("mode %04o on %s", r.Mode, r.Path)
}

// CurrentState implements engine.Resource. A mode cannot be reconciled on a
// file that does not exist, so a missing path is invalid rather than missing.
func (r *PermissionResource) CurrentState() (engine.ResourceState, error) {
	info, err := os.Stat(r.Path)
	if os.IsNotExist(err) {
		return engine.InvalidState(fmt.Sprintf("%s does not exist", r.Path)), nil
	}
	if err != nil {
		return engine.ResourceState{}, err
	}

	if info.Mode().Perm() == r.Mode {
		return engine.CorrectState(), nil
	}
	return engine.IncorrectState(fmt.Sprintf("mode %04o", info.Mode().Perm())), nil
}

// Apply implements engine.Resource.
func (r *PermissionResource) Apply() (engine.ResourceChange, error) {
	if err := os.Chmod(r.Path, r.Mode); err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// Remove implements engine.Resource. There is no previous mode to restore.
func (r *PermissionResource) Remove() (engine.ResourceChange, error) {
	return engine.ResourceChange{}, engine.ErrRemoveUnsupported
}
