package archive

import (
	"fmt"

	"github.com/ryanuber/columnize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	localarchive "github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/configuration"
	"github.com/zvonler/talkarchive/model"
)

func initListCommand() *cobra.Command {
	listCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists the boards and topics in the archive",
		Args:  cobra.NoArgs,
		Run:   runListCommand,
	}
	return listCommand
}

func runListCommand(cmd *cobra.Command, args []string) {
	repo := configuration.Load().Repository()

	local, err := localarchive.ReadLocal(repo)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(columnize.SimpleFormat(listingRows(repo, local)))
}

// listingRows lists every archived topic. A topic is complete when its page
// files are numbered 1 through its page count without gaps.
func listingRows(repo *localarchive.Repository, l *model.Listing) []string {
	output := []string{
		"Board | Topic | Pages | Complete | Directory",
	}
	for _, b := range l.Boards() {
		for _, t := range b.Topics {
			dir := localarchive.TopicDir(t.Title)
			complete := repo.PageExists(b.Name, dir, t.Pages)
			output = append(output, fmt.Sprintf("%s | %s | %d | %t | %s", b.Name, t.Title, t.Pages, complete, dir))
		}
	}
	return output
}
