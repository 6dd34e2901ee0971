package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotfix-sh/dotfix/pkg/resources"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview what apply would change",
		Long: `Compute and display the changes an apply would make, without
touching the machine. Equivalent to "dotfix apply --dry-run".`,
		Example: `  dotfix plan
  dotfix plan -m machine.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			return rt.executeRun(cmd.Context(), resources.BuildTasks(), true, false)
		},
	}

	return cmd
}
