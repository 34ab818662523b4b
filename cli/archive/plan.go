package archive

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ryanuber/columnize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zvonler/talkarchive/configuration"
	"github.com/zvonler/talkarchive/model"
	"github.com/zvonler/talkarchive/session"
)

func initPlanCommand() *cobra.Command {
	planCommand := &cobra.Command{
		Use:   "plan [URL]",
		Short: "Prints the pages the next download would fetch",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPlanCommand,
	}
	return planCommand
}

func runPlanCommand(cmd *cobra.Command, args []string) {
	settings := configuration.Load()
	if len(args) == 1 {
		settings.RootURL = args[0]
	}
	if err := os.MkdirAll(settings.Snapshots, 0755); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := &session.Session{
		Config: settings.SessionConfig(false),
		Getter: settings.NewFetcher(nil),
		Repo:   settings.Repository(),
		Out:    os.Stderr,
	}
	plan, err := s.Check(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(columnize.SimpleFormat(planRows(plan)))
}

func planRows(plan *model.Plan) []string {
	output := []string{
		"Board | Topic | Pages | Link",
	}
	for _, b := range plan.Boards() {
		if len(b.Topics) == 0 {
			output = append(output, fmt.Sprintf("%s | (listing only) | %d | %s", b.Name, b.Pages, firstLink(b)))
		}
		for _, t := range b.Topics {
			output = append(output, fmt.Sprintf("%s | %s | %d | %s", b.Name, t.Title, t.Pages, t.FirstPageLink))
		}
	}
	output = append(output, fmt.Sprintf("Total | %d topics | %d |", plan.TopicCount(), plan.PageCount()))
	return output
}

func firstLink(b *model.Board) string {
	if len(b.Links) == 0 {
		return ""
	}
	return b.Links[0]
}
