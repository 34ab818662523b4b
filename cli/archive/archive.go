package archive

import (
	"os"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	archiveCommand := &cobra.Command{
		Use:   "archive",
		Short: "Commands for inspecting the local archive",
		Example: "  # Lists archived topics\n" +
			"  " + os.Args[0] + " archive list",
	}

	archiveCommand.AddCommand(initListCommand())
	archiveCommand.AddCommand(initOpenCommand())
	archiveCommand.AddCommand(initPlanCommand())

	return archiveCommand
}
