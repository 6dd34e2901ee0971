// Package facts collects platform and environment facts about the local
// machine. Facts are gathered once at startup and shared read-only across the
// whole run; declaration `when` expressions and resources both consume them.
package facts

import (
	"os"
	"os/exec"
	"runtime"
)

// Facts describes the local machine.
type Facts struct {
	// OS is the operating system, e.g. "linux", "darwin".
	OS string `json:"os"`

	// Arch is the CPU architecture, e.g. "amd64", "arm64".
	Arch string `json:"arch"`

	// Hostname is the machine's hostname.
	Hostname string `json:"hostname"`

	// Home is the current user's home directory.
	Home string `json:"home"`

	// Shell is the user's login shell, if known.
	Shell string `json:"shell"`

	// PackageManager is the detected system package manager, empty if none
	// was found.
	PackageManager string `json:"package_manager"`

	// NumCPU is the number of logical CPUs.
	NumCPU int `json:"num_cpu"`
}

// Collect gathers facts about the local machine.
func Collect() (*Facts, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return &Facts{
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		Hostname:       hostname,
		Home:           home,
		Shell:          os.Getenv("SHELL"),
		PackageManager: DetectPackageManager(),
		NumCPU:         runtime.NumCPU(),
	}, nil
}

// DetectPackageManager probes PATH for a known system package manager and
// returns its name, or empty when none is available.
func DetectPackageManager() string {
	managers := []string{"apt-get", "dnf", "yum", "pacman", "zypper", "apk", "brew"}
	for _, m := range managers {
		if _, err := exec.LookPath(m); err == nil {
			return m
		}
	}
	return ""
}

// Map returns the facts as a plain map, the shape `when` expressions are
// evaluated against.
func (f *Facts) Map() map[string]any {
	return map[string]any{
		"os":              f.OS,
		"arch":            f.Arch,
		"hostname":        f.Hostname,
		"home":            f.Home,
		"shell":           f.Shell,
		"package_manager": f.PackageManager,
		"num_cpu":         f.NumCPU,
	}
}
