package run

import (
	"fmt"
	"time"

	"github.com/ryanuber/columnize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zvonler/talkarchive/configuration"
	"github.com/zvonler/talkarchive/database"
)

func initListCommand() *cobra.Command {
	listCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists the reports of previous download sessions",
		Args:  cobra.NoArgs,
		Run:   runListCommand,
	}
	return listCommand
}

func runListCommand(cmd *cobra.Command, args []string) {
	adb, err := configuration.OpenExistingDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer adb.Close()

	fmt.Println(columnize.SimpleFormat(runRows(adb.Runs())))
}

func runRows(runs []database.Run) []string {
	output := []string{
		"RunID | Started | Mode | Checking | Download | Total | Pages | Failures | Cancelled",
	}
	for _, r := range runs {
		download := "Undefined"
		if r.Download != nil {
			download = r.Download.String()
		}
		output = append(output, fmt.Sprintf("%d | %s | %s | %s | %s | %s | %d | %d | %t",
			r.ID, r.Started.Format(time.DateTime), r.Mode, r.Check, download, r.Total, r.Pages, r.Failures, r.Cancelled))
	}
	return output
}
