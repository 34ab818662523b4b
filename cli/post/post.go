package post

import (
	"os"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	postCommand := &cobra.Command{
		Use:   "post",
		Short: "Commands for searching extracted posts",
		Example: "  # Finds posts mentioning 'antminer'\n" +
			"  " + os.Args[0] + " post grep '(?i)antminer'",
	}

	postCommand.AddCommand(initGrepCommand())
	postCommand.AddCommand(initWordcloudCommand())

	return postCommand
}
