// Package extract turns archived topic pages into structured post records.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/database"
	"github.com/zvonler/talkarchive/listing"
	"github.com/zvonler/talkarchive/model"
)

const (
	DefaultOutput = "BitcoinTalk-data.json"
	NotAvailable  = "not_available"
)

type Dataset struct {
	AvailableBoards int                   `json:"available_boards"`
	Boards          map[string]*BoardData `json:"boards"`
}

type BoardData struct {
	Error      string                `json:"error,omitempty"`
	Info       *BoardInfo            `json:"info,omitempty"`
	TotalPages int                   `json:"total_pages,omitempty"`
	Topics     map[string]*TopicData `json:"topics,omitempty"`
}

type TopicData struct {
	Dir        string               `json:"dir"`
	StartedBy  model.Author         `json:"started_by"`
	StartedAt  time.Time            `json:"started_at"`
	TotalPages int                  `json:"total_pages"`
	Pages      map[string]*PageData `json:"pages"`
}

type PageData struct {
	Posts []model.Post `json:"posts"`
}

// Extractor reads the boards listed on the archived board index page and
// collects the posts of every archived topic page.
type Extractor struct {
	Repo     *archive.Repository
	RootName string
	// DB, when set, receives boards, topics and posts as they are extracted.
	DB  *database.ArchiveDB
	Out io.Writer
	Now func() time.Time
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Extractor) progress(format string, args ...any) {
	if e.Out != nil {
		fmt.Fprintf(e.Out, format, args...)
	}
}

// Extract walks the archive. When ctx is cancelled the data gathered so far
// is returned together with the context's error.
func (e *Extractor) Extract(ctx context.Context) (*Dataset, error) {
	root, err := e.Repo.ReadRoot(e.RootName)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(root))
	if err != nil {
		return nil, err
	}
	infos, err := ParseBoardInfos(doc)
	if err != nil {
		return nil, err
	}

	data := &Dataset{Boards: make(map[string]*BoardData)}
	for i := range infos {
		infos[i].Available = e.Repo.HasBoard(infos[i].Name)
		if infos[i].Available {
			data.AvailableBoards++
		}
	}

	for i := range infos {
		if err := ctx.Err(); err != nil {
			return data, err
		}
		info := &infos[i]
		e.progress("Board %s (%s) available: %t\n", info.Name, info.Link, info.Available)

		if !info.Available {
			data.Boards[info.Name] = &BoardData{Error: NotAvailable, Info: info}
			if e.DB != nil {
				if _, err := e.DB.InsertOrUpdateBoard(info.Name, info.Link, 0, false); err != nil {
					return data, err
				}
			}
			continue
		}

		board, err := e.board(ctx, info)
		if board != nil {
			data.Boards[info.Name] = board
		}
		if err != nil {
			return data, err
		}
	}
	return data, nil
}

func (e *Extractor) board(ctx context.Context, info *BoardInfo) (*BoardData, error) {
	content, err := e.Repo.ReadBoardPage(info.Name)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	pages, err := listing.BoardPageCount(doc)
	if err != nil {
		return nil, fmt.Errorf("board %q: %w", info.Name, err)
	}

	board := &BoardData{Info: info, TotalPages: pages, Topics: make(map[string]*TopicData)}

	var boardId database.BoardID
	if e.DB != nil {
		if boardId, err = e.DB.InsertOrUpdateBoard(info.Name, info.Link, pages, true); err != nil {
			return board, err
		}
	}

	dirs, err := e.Repo.TopicDirs(info.Name)
	if err != nil {
		return board, err
	}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return board, err
		}
		if err := e.topic(ctx, board, info.Name, dir, boardId); err != nil {
			return board, err
		}
	}
	return board, nil
}

func (e *Extractor) topic(ctx context.Context, board *BoardData, boardName, dir string, boardId database.BoardID) error {
	logger := log.WithFields(log.Fields{"board": boardName, "topic": dir})

	pages, err := e.Repo.PageFiles(boardName, dir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		logger.Warn("Topic directory is empty")
		return nil
	}

	first, err := e.document(boardName, dir, pages[0])
	if err != nil {
		return err
	}
	summary, err := ParseTopic(first, e.now())
	if err != nil {
		logger.WithError(err).Warn("Skipping topic")
		return nil
	}

	topic := &TopicData{
		Dir:        dir,
		StartedBy:  summary.StartedBy,
		StartedAt:  summary.StartedAt,
		TotalPages: len(pages),
		Pages:      make(map[string]*PageData),
	}
	board.Topics[summary.Title] = topic

	var topicId database.TopicID
	if e.DB != nil {
		if topicId, err = e.DB.InsertOrUpdateTopic(boardId, dir, summary.Title, summary.StartedBy, summary.StartedAt, len(pages)); err != nil {
			return err
		}
	}

	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.progress("└── %s\n    └── %s\n        └── %s\n            └── %d.html (%d/%d)\n",
			e.Repo.Root(), boardName, dir, n, n, len(pages))

		doc, err := e.document(boardName, dir, n)
		if err != nil {
			return err
		}
		posts, err := ParsePosts(doc, e.now())
		if err != nil {
			logger.WithError(err).WithField("page", n).Warn("Skipping page")
			continue
		}
		topic.Pages[fmt.Sprint(n)] = &PageData{Posts: posts}

		if e.DB != nil {
			if err := e.DB.AddPosts(topicId, n, posts); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Extractor) document(board, dir string, n int) (*goquery.Document, error) {
	content, err := e.Repo.ReadPage(board, dir, n)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

// Save writes the dataset as indented JSON.
func Save(path string, data *Dataset) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
