package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest without running anything",
		Long: `Parse the manifest sources, validate every declaration, and
evaluate the policies. Nothing on the machine is queried or changed.`,
		Example: `  dotfix validate
  dotfix validate -m machine.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			if err := rt.gate(cmd.Context()); err != nil {
				return err
			}

			snap := rt.handle.Snapshot()
			for kind, n := range snap.Manifest.Counts() {
				if n > 0 {
					rt.term.Infof("%s: %d", kind, n)
				}
			}
			fmt.Println("manifest is valid")
			return nil
		},
	}

	return cmd
}
