package extract

import (
	"context"
	"errors"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zvonler/talkarchive/configuration"
	fields "github.com/zvonler/talkarchive/extract"
)

var (
	output string
)

func NewCommand() *cobra.Command {
	extractCommand := &cobra.Command{
		Use:   "extract [--output FILE]",
		Short: "Extracts the posts of every archived topic page",
		Args:  cobra.NoArgs,
		Example: "" +
			"  " + os.Args[0] + " extract --output posts.json",
		Run: runExtractCommand,
	}

	extractCommand.Flags().StringVar(&output, "output", fields.DefaultOutput, "JSON output file")

	return extractCommand
}

func runExtractCommand(cmd *cobra.Command, args []string) {
	settings := configuration.Load()

	adb, err := configuration.OpenDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer adb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := &fields.Extractor{
		Repo:     settings.Repository(),
		RootName: settings.RootName,
		DB:       adb,
		Out:      os.Stdout,
	}
	data, err := e.Extract(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	if data == nil {
		return
	}
	if err := fields.Save(output, data); err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{
		"output": output,
		"boards": len(data.Boards),
		"root":   settings.RootName,
	}).Info("Extraction saved")
}
