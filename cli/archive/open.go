package archive

import (
	"fmt"

	"github.com/pkg/browser"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	localarchive "github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/configuration"
)

func initOpenCommand() *cobra.Command {
	openCommand := &cobra.Command{
		Use:   "open <board> <title>",
		Short: "Opens the first archived page of a topic in a browser.",
		Args:  cobra.ExactArgs(2),
		Run:   runOpenCommand,
	}
	return openCommand
}

func runOpenCommand(cmd *cobra.Command, args []string) {
	repo := configuration.Load().Repository()

	path, err := firstPage(repo, args[0], args[1])
	if err == nil {
		err = browser.OpenFile(path)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func firstPage(repo *localarchive.Repository, board, title string) (string, error) {
	dir := localarchive.TopicDir(title)
	pages, err := repo.PageFiles(board, dir)
	if err != nil {
		return "", fmt.Errorf("topic %q of board %q is not archived: %w", title, board, err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("topic %q of board %q has no pages", title, board)
	}
	return repo.PagePath(board, dir, pages[0]), nil
}
