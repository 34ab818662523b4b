package download

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zvonler/talkarchive/configuration"
	driver "github.com/zvonler/talkarchive/download"
	"github.com/zvonler/talkarchive/fetcher"
	"github.com/zvonler/talkarchive/session"
	"golang.org/x/term"
)

var (
	update bool
)

func NewCommand() *cobra.Command {
	downloadCommand := &cobra.Command{
		Use:   "download [--update] [URL]",
		Short: "Brings the local archive up to date with the forum",
		Args:  cobra.MaximumNArgs(1),
		Example: "" +
			"  # Download only what changed since the last run\n" +
			"  " + os.Args[0] + " download\n" +
			"  # Refetch every board and topic\n" +
			"  " + os.Args[0] + " download --update " + session.DefaultRootURL,
		Run: runDownloadCommand,
	}

	downloadCommand.Flags().BoolVarP(&update, "update", "u", false, "Refetch the whole online state instead of the difference")

	return downloadCommand
}

func runDownloadCommand(cmd *cobra.Command, args []string) {
	settings := configuration.Load()
	if len(args) == 1 {
		settings.RootURL = args[0]
	}
	if err := os.MkdirAll(settings.Snapshots, 0755); err != nil {
		log.Fatal(err)
	}

	adb, err := configuration.OpenDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer adb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := new(fetcher.Stats)
	color := term.IsTerminal(int(os.Stdout.Fd()))
	s := &session.Session{
		Config:   settings.SessionConfig(update),
		Getter:   settings.NewFetcher(stats),
		Repo:     settings.Repository(),
		Stats:    stats,
		DB:       adb,
		Out:      os.Stdout,
		Progress: driver.NewPrinter(os.Stdout, color),
	}

	log.WithFields(log.Fields{
		"root":    settings.RootURL,
		"archive": settings.Archive,
		"full":    update,
	}).Debug("Starting session")

	if _, err := s.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
