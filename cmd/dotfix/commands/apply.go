package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotfix-sh/dotfix/pkg/resources"
)

func newApplyCommand() *cobra.Command {
	var dryRun, bail bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the machine against the manifest",
		Long: `Reconcile the machine against the declared configuration.

Each task queries the live state of its resources and fixes only what
differs: missing links are created, wrong modes are corrected, absent
packages are installed. Resources already in their declared state are
left untouched.`,
		Example: `  # Apply the manifest in the current directory
  dotfix apply

  # Apply a specific manifest
  dotfix apply -m machine.cue

  # Preview without changing anything
  dotfix apply --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			return rt.executeRun(cmd.Context(), resources.BuildTasks(), dryRun, bail)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview changes without applying them")
	cmd.Flags().BoolVar(&bail, "bail", false, "abort each pass on its first failure")

	return cmd
}
