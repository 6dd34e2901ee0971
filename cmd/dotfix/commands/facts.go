package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotfix-sh/dotfix/pkg/facts"
)

func newFactsCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Show the facts collected about this machine",
		Long: `Collect and display the machine facts that declaration "when"
expressions are evaluated against: OS, architecture, hostname, home
directory, shell, and the detected package manager.`,
		Example: `  dotfix facts
  dotfix facts --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			machineFacts, err := facts.Collect()
			if err != nil {
				return fmt.Errorf("failed to collect facts: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(machineFacts)
			}

			fmt.Printf("os:              %s\n", machineFacts.OS)
			fmt.Printf("arch:            %s\n", machineFacts.Arch)
			fmt.Printf("hostname:        %s\n", machineFacts.Hostname)
			fmt.Printf("home:            %s\n", machineFacts.Home)
			fmt.Printf("shell:           %s\n", machineFacts.Shell)
			fmt.Printf("package_manager: %s\n", machineFacts.PackageManager)
			fmt.Printf("num_cpu:         %d\n", machineFacts.NumCPU)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
