package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/fetcher"
	"github.com/zvonler/talkarchive/model"
)

type Getter interface {
	Fetch(ctx context.Context, uri string) (fetcher.Page, error)
}

// Walker reconstructs the online state of the forum: every board listed on
// the index page, each of its listing pages, and the topics found on them.
type Walker struct {
	Getter Getter
	// Delay is waited after every listing page beyond the first of a board.
	Delay time.Duration
	// OnBoardPage, when set, is called after each board listing page is parsed.
	OnBoardPage func(board *model.Board, page int, topics []model.Topic)
}

// Walk parses the board index page body and follows every board it lists.
func (w *Walker) Walk(ctx context.Context, indexBody string) (*model.Listing, error) {
	refs, err := ParseBoardIndex(strings.NewReader(indexBody))
	if err != nil {
		return nil, fmt.Errorf("parsing board index: %w", err)
	}

	online := model.NewListing()
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return online, err
		}
		board, err := w.walkBoard(ctx, ref)
		if err != nil {
			return online, err
		}
		online.Add(board)
	}
	return online, nil
}

func (w *Walker) walkBoard(ctx context.Context, ref BoardRef) (*model.Board, error) {
	log.Infof("Downloading `%s`...", ref.Name)
	first, err := w.Getter.Fetch(ctx, ref.Link)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(first.Body))
	if err != nil {
		return nil, err
	}
	pages, err := BoardPageCount(doc)
	if err != nil {
		return nil, fmt.Errorf("board %q: %w", ref.Name, err)
	}
	links, err := model.PageLinks(ref.Link, model.BoardStride, pages)
	if err != nil {
		return nil, fmt.Errorf("board %q: %w", ref.Name, err)
	}

	board := &model.Board{
		Name:   ref.Name,
		Pages:  pages,
		Links:  links,
		Topics: []model.Topic{},
	}

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body := first.Body
		if i > 0 || link != ref.Link {
			page, err := w.Getter.Fetch(ctx, link)
			if err != nil {
				return nil, err
			}
			body = page.Body
			if err := fetcher.Wait(ctx, w.Delay); err != nil {
				return nil, err
			}
		}

		topics, err := ParseTopics(strings.NewReader(body), i+1)
		if err != nil {
			return nil, fmt.Errorf("board %q: %w", ref.Name, err)
		}
		board.Topics = append(board.Topics, topics...)

		log.Debugf("Retrieved %d topics on page %d/%d of %s", len(topics), i+1, pages, ref.Name)
		if w.OnBoardPage != nil {
			w.OnBoardPage(board, i+1, topics)
		}
	}
	return board, nil
}
