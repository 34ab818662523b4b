package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zvonler/talkarchive/cli/archive"
	"github.com/zvonler/talkarchive/cli/download"
	"github.com/zvonler/talkarchive/cli/extract"
	"github.com/zvonler/talkarchive/cli/post"
	"github.com/zvonler/talkarchive/cli/run"
	"github.com/zvonler/talkarchive/configuration"
)

var (
	archivePath  string
	dbPath       string
	snapshotsDir string
	cfgFile      string
	logLevel     string
)

func NewCommand() *cobra.Command {
	talkarchiveCli := &cobra.Command{
		Use:     "talkarchive",
		Short:   "Talkarchive CLI",
		Long:    "Talkarchive keeps a local archive of a BitcoinTalk board up to date",
		Example: fmt.Sprintf("  %s <command> [flags...]", os.Args[0]),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configuration.Init(cfgFile)
		},
	}

	flags := talkarchiveCli.PersistentFlags()
	flags.StringVar(&archivePath, "archive", configuration.DefaultArchive, "Archive root directory")
	flags.StringVar(&dbPath, "database", configuration.DefaultDatabase, "Database filename")
	flags.StringVar(&snapshotsDir, "snapshots", ".", "Directory receiving the JSON snapshots of each run")
	flags.StringVar(&cfgFile, "config", "", "Optional YAML config file")
	flags.StringVar(&logLevel, "log-level", "info", "Log level")

	viper.BindPFlag("archive", flags.Lookup("archive"))
	viper.BindPFlag("database", flags.Lookup("database"))
	viper.BindPFlag("snapshots", flags.Lookup("snapshots"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))

	talkarchiveCli.AddCommand(archive.NewCommand())
	talkarchiveCli.AddCommand(download.NewCommand())
	talkarchiveCli.AddCommand(extract.NewCommand())
	talkarchiveCli.AddCommand(post.NewCommand())
	talkarchiveCli.AddCommand(run.NewCommand())

	return talkarchiveCli
}
