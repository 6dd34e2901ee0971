package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	settingsPath string
	manifests    []string
	verbose      bool
	sequential   bool

	// appVersion is reported on spans and in --version output.
	appVersion string
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	appVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dotfix",
		Short: "dotfix - declarative machine configuration",
		Long: `dotfix reconciles a machine against a declared configuration:
symlinks, file permissions, system packages, services, and editor
extensions, described in CUE manifests.

Each run computes the difference between the declared and the live state
and fixes only what differs. Runs are previewable, policy-gated, and
recorded in a local history database.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "", "settings file path")
	rootCmd.PersistentFlags().StringArrayVarP(&manifests, "manifest", "m", []string{"."}, "manifest file or directory (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
	rootCmd.PersistentFlags().BoolVar(&sequential, "sequential", false, "run tasks one at a time")

	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newRemoveCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newFactsCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
