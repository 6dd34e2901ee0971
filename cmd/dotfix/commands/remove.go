package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotfix-sh/dotfix/pkg/resources"
)

func newRemoveCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Undo what the manifest applied",
		Long: `Remove the resources the engine can safely undo: symlinks it
created and editor extensions it installed. A resource is only removed
when it currently matches its declaration; anything else is left alone.

Packages, file modes, and service states are never undone.`,
		Example: `  dotfix remove
  dotfix remove --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			return rt.executeRun(cmd.Context(), resources.BuildRemoveTasks(), dryRun, false)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview removals without applying them")

	return cmd
}
