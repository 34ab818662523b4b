package run

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	runCommand := &cobra.Command{
		Use:   "run",
		Short: "Commands for inspecting previous download sessions",
	}

	runCommand.AddCommand(initListCommand())

	return runCommand
}
