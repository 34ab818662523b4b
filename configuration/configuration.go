// Package configuration resolves the settings shared by the CLI commands from
// flags, an optional config file and TALKARCHIVE_ environment variables.
package configuration

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/database"
	"github.com/zvonler/talkarchive/download"
	"github.com/zvonler/talkarchive/fetcher"
	"github.com/zvonler/talkarchive/session"
	"github.com/zvonler/talkarchive/utils"
)

const (
	EnvPrefix = "TALKARCHIVE"

	DefaultArchive  = "BitcoinTalk-Forum"
	DefaultDatabase = "talkarchive.db"
)

type Settings struct {
	RootURL      string
	RootName     string
	Archive      string
	Snapshots    string
	Database     string
	Delay        time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	UserAgent    string
	FetchTimeout time.Duration
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("root-url", session.DefaultRootURL)
	v.SetDefault("root-name", session.DefaultRootName)
	v.SetDefault("archive", DefaultArchive)
	v.SetDefault("snapshots", ".")
	v.SetDefault("database", DefaultDatabase)
	v.SetDefault("delay", download.DefaultDelay)
	v.SetDefault("retry.attempts", fetcher.DefaultMaxAttempts)
	v.SetDefault("retry.backoff", time.Second)
	v.SetDefault("retry.max-backoff", 30*time.Second)
	v.SetDefault("fetch.user-agent", fetcher.DefaultUserAgent)
	v.SetDefault("fetch.timeout", fetcher.DefaultTimeout)
	v.SetDefault("log.level", "info")
}

// Init prepares the global viper instance. A non-empty cfgFile must exist.
func Init(cfgFile string) error {
	SetDefaults(viper.GetViper())
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %q: %w", cfgFile, err)
		}
		log.WithField("file", viper.ConfigFileUsed()).Debug("Loaded configuration")
	}

	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

func Load() Settings {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) Settings {
	return Settings{
		RootURL:      v.GetString("root-url"),
		RootName:     v.GetString("root-name"),
		Archive:      v.GetString("archive"),
		Snapshots:    v.GetString("snapshots"),
		Database:     v.GetString("database"),
		Delay:        v.GetDuration("delay"),
		MaxAttempts:  v.GetInt("retry.attempts"),
		BackoffBase:  v.GetDuration("retry.backoff"),
		BackoffMax:   v.GetDuration("retry.max-backoff"),
		UserAgent:    v.GetString("fetch.user-agent"),
		FetchTimeout: v.GetDuration("fetch.timeout"),
	}
}

func (s Settings) RetryPolicy() fetcher.RetryPolicy {
	return fetcher.RetryPolicy{
		MaxAttempts: s.MaxAttempts,
		Backoff:     fetcher.ExponentialBackoff{Base: s.BackoffBase, Max: s.BackoffMax},
	}
}

func (s Settings) NewFetcher(stats *fetcher.Stats, opts ...fetcher.Option) *fetcher.Fetcher {
	opts = append([]fetcher.Option{
		fetcher.WithRetryPolicy(s.RetryPolicy()),
		fetcher.WithUserAgent(s.UserAgent),
		fetcher.WithTimeout(s.FetchTimeout),
	}, opts...)
	return fetcher.New(stats, opts...)
}

func (s Settings) Repository() *archive.Repository {
	return archive.NewRepository(s.Archive)
}

func (s Settings) SessionConfig(full bool) session.Config {
	return session.Config{
		RootURL:     s.RootURL,
		RootName:    s.RootName,
		Full:        full,
		SnapshotDir: s.Snapshots,
		Delay:       s.Delay,
	}
}

func OpenExistingDatabase() (adb *database.ArchiveDB, err error) {
	dbPath := viper.GetString("database")

	var exists bool
	if exists, err = utils.PathExists(dbPath); err == nil {
		if exists {
			adb, err = database.OpenArchiveDB(dbPath)
		} else {
			err = fmt.Errorf("Database %q does not exist", dbPath)
		}
	}
	return
}

// OpenDatabase opens the configured database, creating it if needed.
func OpenDatabase() (*database.ArchiveDB, error) {
	return database.OpenArchiveDB(viper.GetString("database"))
}
