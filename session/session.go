// Package session runs one archive update: the check phase builds the plan
// from the online and archived states, the download phase executes it, and a
// report is produced exactly once whether the run completes or is cancelled.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/database"
	"github.com/zvonler/talkarchive/download"
	"github.com/zvonler/talkarchive/fetcher"
	"github.com/zvonler/talkarchive/listing"
	"github.com/zvonler/talkarchive/model"
	"github.com/zvonler/talkarchive/reconcile"
)

const (
	DefaultRootURL  = "https://bitcointalk.org/index.php?board=14.0"
	DefaultRootName = "Mining"

	OnlineSnapshot = "file_online.json"
	LocalSnapshot  = "file_local.json"
	PlanSnapshot   = "download_list.json"

	ModeIncremental = "incremental"
	ModeFull        = "full"
)

type Config struct {
	RootURL  string
	RootName string
	// Full plans the whole online state instead of diffing it with the archive.
	Full bool
	// SnapshotDir receives the JSON snapshots of each run. Empty disables them.
	SnapshotDir string
	Delay       time.Duration
}

func (c Config) mode() string {
	if c.Full {
		return ModeFull
	}
	return ModeIncremental
}

type RunRecorder interface {
	RecordRun(r database.Run) (database.RunID, error)
}

type Session struct {
	Config   Config
	Getter   download.Getter
	Repo     *archive.Repository
	Stats    *fetcher.Stats
	DB       RunRecorder
	Out      io.Writer
	Progress download.Progress
	Now      func() time.Time

	once       sync.Once
	report     *Report
	start      time.Time
	checkStart time.Time
	checkEnd   time.Time
	dlStart    time.Time
	dlEnd      time.Time
}

func (s *Session) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Session) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}

func (s *Session) stats() *fetcher.Stats {
	if s.Stats == nil {
		s.Stats = new(fetcher.Stats)
	}
	return s.Stats
}

// Run performs the check and download phases. Cancellation of ctx is not an
// error: the returned report is marked cancelled. Any other failure aborts
// the run without a report.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	s.start = s.now()

	plan, err := s.Check(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return s.finish(true), nil
		}
		return nil, err
	}

	if plan.Empty() {
		log.Info("Archive is up to date")
		return s.finish(false), nil
	}

	s.dlStart = s.now()
	driver := &download.Driver{
		Getter:   s.Getter,
		Repo:     s.Repo,
		Stats:    s.stats(),
		Delay:    s.Config.Delay,
		Progress: s.Progress,
	}
	if err := driver.Execute(ctx, plan); err != nil {
		if ctx.Err() != nil {
			return s.finish(true), nil
		}
		return nil, err
	}
	s.dlEnd = s.now()

	return s.finish(false), nil
}

// Check fetches and saves the board index page, walks the online listing and
// returns the plan for this run's mode.
func (s *Session) Check(ctx context.Context) (*model.Plan, error) {
	s.checkStart = s.now()
	if s.start.IsZero() {
		s.start = s.checkStart
	}

	fmt.Fprintf(s.out(), "Downloading `%s` page...\n", s.Config.RootName)
	root, err := s.Getter.Fetch(ctx, s.Config.RootURL)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.WriteRoot(s.Config.RootName, root.Body); err != nil {
		return nil, err
	}

	fmt.Fprintln(s.out(), "FETCHING ONLINE DATA")
	walker := &listing.Walker{
		Getter: s.Getter,
		Delay:  s.Config.Delay,
		OnBoardPage: func(board *model.Board, page int, topics []model.Topic) {
			fmt.Fprintf(s.out(), "Retrieved %d topics on page %d/%d of %s\n", len(topics), page, board.Pages, board.Name)
		},
	}
	online, err := walker.Walk(ctx, root.Body)
	if err != nil {
		return nil, err
	}
	if err := s.snapshot(OnlineSnapshot, online); err != nil {
		return nil, err
	}

	var plan *model.Plan
	if s.Config.Full {
		fmt.Fprintln(s.out(), "UPDATING ALL DATA")
		plan = reconcile.FullRefresh(online)
	} else {
		fmt.Fprintln(s.out(), "FETCHING LOCAL DATA")
		local, err := archive.ReadLocal(s.Repo)
		if err != nil {
			return nil, err
		}
		if err := s.snapshot(LocalSnapshot, local); err != nil {
			return nil, err
		}
		plan = reconcile.Diff(online, local)
		if err := s.snapshot(PlanSnapshot, plan); err != nil {
			return nil, err
		}
	}

	s.checkEnd = s.now()
	log.WithFields(log.Fields{
		"boards": plan.Len(),
		"topics": plan.TopicCount(),
		"pages":  plan.PageCount(),
	}).Info("Download plan ready")
	return plan, nil
}

func (s *Session) snapshot(name string, v any) error {
	if s.Config.SnapshotDir == "" {
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Config.SnapshotDir, name), b, 0644)
}

// Report returns the report of the session, or nil while it is running.
func (s *Session) Report() *Report {
	return s.report
}

func (s *Session) finish(cancelled bool) *Report {
	s.once.Do(func() {
		end := s.now()
		if s.start.IsZero() {
			s.start = end
		}
		if s.checkStart.IsZero() {
			s.checkStart = s.start
		}
		if s.checkEnd.IsZero() {
			s.checkEnd = end
		}

		r := &Report{
			Mode:      s.Config.mode(),
			Started:   s.start,
			Check:     s.checkEnd.Sub(s.checkStart),
			Total:     end.Sub(s.start),
			Failures:  s.stats().Failures.Load(),
			Pages:     s.stats().Pages.Load(),
			Cancelled: cancelled,
		}
		if !s.dlStart.IsZero() {
			if s.dlEnd.IsZero() {
				s.dlEnd = end
			}
			d := s.dlEnd.Sub(s.dlStart)
			r.Download = &d
		}

		if err := r.Write(s.out()); err != nil {
			log.WithError(err).Warn("Failed to write report")
		}
		if s.DB != nil {
			if _, err := s.DB.RecordRun(r.Run()); err != nil {
				log.WithError(err).Warn("Failed to record run")
			}
		}
		s.report = r
	})
	return s.report
}
