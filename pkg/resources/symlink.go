package resources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dotfix-sh/dotfix/pkg/engine"
)

// SymlinkResource manages one symlink from Target to Source.
type SymlinkResource struct {
	// Source is the absolute path the link must point at.
	Source string

	// Target is the absolute path of the link itself.
	Target string
}

// NewSymlinkResource creates a symlink resource. Both paths must be absolute.
func NewSymlinkResource(source, target string) *SymlinkResource {
	return &SymlinkResource{Source: source, Target: target}
}

// Description implements engine.Resource.
func (r *SymlinkResource) Description() string {
	return fmt.Sprintf("link %s -> %s", r.Target, r.Source)
}

// CurrentState implements engine.Resource. A target occupied by anything
// other than a symlink is invalid; the engine never replaces files it does
// not own.
func (r *SymlinkResource) CurrentState() (engine.ResourceState, error) {
	info, err := os.Lstat(r.Target)
	if os.IsNotExist(err) {
		return engine.MissingState(), nil
	}
	if err != nil {
		return engine.ResourceState{}, err
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return engine.InvalidState(fmt.Sprintf("%s exists and is not a symlink", r.Target)), nil
	}

	dest, err := os.Readlink(r.Target)
	if err != nil {
		return engine.ResourceState{}, err
	}
	if filepath.Clean(dest) == filepath.Clean(r.Source) {
		return engine.CorrectState(), nil
	}
	return engine.IncorrectState(fmt.Sprintf("points at %s", dest)), nil
}

// Apply implements engine.Resource. An incorrect link is replaced; a link
// created concurrently that already points at the source is tolerated.
func (r *SymlinkResource) Apply() (engine.ResourceChange, error) {
	if err := os.MkdirAll(filepath.Dir(r.Target), 0o755); err != nil {
		return engine.ResourceChange{}, err
	}

	if dest, err := os.Readlink(r.Target); err == nil {
		if filepath.Clean(dest) == filepath.Clean(r.Source) {
			return engine.AlreadyCorrectChange(), nil
		}
		if err := os.Remove(r.Target); err != nil {
			return engine.ResourceChange{}, err
		}
	}

	if err := os.Symlink(r.Source, r.Target); err != nil {
		if os.IsExist(err) {
			if dest, rerr := os.Readlink(r.Target); rerr == nil &&
				filepath.Clean(dest) == filepath.Clean(r.Source) {
				return engine.AlreadyCorrectChange(), nil
			}
		}
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// Remove implements engine.Resource. The engine only calls this when the link
// is correct, so removing the target path is removing our own link.
func (r *SymlinkResource) Remove() (engine.ResourceChange, error) {
	err := os.Remove(r.Target)
	if os.IsNotExist(err) {
		return engine.AlreadyCorrectChange(), nil
	}
	if err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}
