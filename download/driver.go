// Package download executes a plan against the archive: every planned board
// listing page and topic page is fetched and written in plan order.
package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/fetcher"
	"github.com/zvonler/talkarchive/model"
)

// DefaultDelay is waited after every topic page fetch.
const DefaultDelay = 500 * time.Millisecond

var ErrCancelled = errors.New("download cancelled")

type Getter interface {
	Fetch(ctx context.Context, uri string) (fetcher.Page, error)
}

// Progress receives a notification around every topic page fetch. page is
// 1-based.
type Progress interface {
	Fetching(board *model.Board, topic model.Topic, page int)
	Saved(board *model.Board, topic model.Topic, page int)
}

// Driver fetches planned pages into the repository. Every planned page is
// fetched and overwritten, whether or not it is already archived.
type Driver struct {
	Getter   Getter
	Repo     *archive.Repository
	Stats    *fetcher.Stats
	Delay    time.Duration
	Progress Progress
}

// Execute runs the plan. The context is checked before every fetch, every
// write and every loop iteration; once it is done Execute stops and returns
// an error wrapping both ErrCancelled and the context's error.
func (d *Driver) Execute(ctx context.Context, plan *model.Plan) error {
	if err := d.Repo.EnsureRoot(); err != nil {
		return err
	}
	for _, board := range plan.Boards() {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		if err := d.board(ctx, board); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) board(ctx context.Context, board *model.Board) error {
	if err := d.Repo.EnsureBoard(board.Name); err != nil {
		return err
	}

	if len(board.Links) > 0 {
		page, err := d.fetch(ctx, board.Links[0])
		if err != nil {
			return err
		}
		if err := checkpoint(ctx); err != nil {
			return err
		}
		if err := d.Repo.WriteBoardPage(board.Name, page.Body); err != nil {
			return err
		}
	} else {
		log.WithField("board", board.Name).Warn("Board has no listing page links")
	}

	for _, topic := range board.Topics {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		if err := d.topic(ctx, board, topic); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) topic(ctx context.Context, board *model.Board, topic model.Topic) error {
	dir := archive.TopicDir(topic.Title)
	if err := d.Repo.EnsureTopic(board.Name, dir); err != nil {
		return err
	}

	for i := 0; i < topic.Pages; i++ {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		link, err := model.TopicPageLink(topic.FirstPageLink, i)
		if err != nil {
			return fmt.Errorf("topic %q: %w", topic.Title, err)
		}

		if d.Progress != nil {
			d.Progress.Fetching(board, topic, i+1)
		}
		page, err := d.fetch(ctx, link)
		if err != nil {
			return err
		}
		if err := checkpoint(ctx); err != nil {
			return err
		}
		if err := d.Repo.WritePage(board.Name, dir, i+1, page.Body); err != nil {
			return err
		}

		if d.Stats != nil {
			d.Stats.Pages.Inc()
		}
		if d.Progress != nil {
			d.Progress.Saved(board, topic, i+1)
		}

		if err := fetcher.Wait(ctx, d.Delay); err != nil {
			return cancelled(err)
		}
	}
	return nil
}

func (d *Driver) fetch(ctx context.Context, uri string) (fetcher.Page, error) {
	if err := checkpoint(ctx); err != nil {
		return fetcher.Page{}, err
	}
	page, err := d.Getter.Fetch(ctx, uri)
	if err != nil {
		if ctx.Err() != nil {
			return page, cancelled(err)
		}
		return page, fmt.Errorf("fetching %s: %w", uri, err)
	}
	return page, nil
}

func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	return nil
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
