package archive

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/listing"
	"github.com/zvonler/talkarchive/model"
)

// ReadLocal reconstructs the archived state from the repository. Topic page
// counts are the number of page files present. Boards without a readable
// first listing page and topics that are empty or lack the expected markup
// are logged and left out.
func ReadLocal(repo *Repository) (*model.Listing, error) {
	local := model.NewListing()

	names, err := repo.BoardNames()
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		board, err := readBoard(repo, name)
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, listing.ErrUnexpectedMarkup) || errors.Is(err, model.ErrMalformedLink) {
			log.WithField("board", name).WithError(err).Warn("Skipping archived board")
			continue
		} else if err != nil {
			return nil, err
		}
		local.Add(board)
	}
	return local, nil
}

func readBoard(repo *Repository, name string) (*model.Board, error) {
	content, err := repo.ReadBoardPage(name)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	index, ok := doc.Find(`link[rel="index"]`).First().Attr("href")
	if !ok {
		return nil, fmt.Errorf("%w: no index link on board page", listing.ErrUnexpectedMarkup)
	}
	pages, err := listing.BoardPageCount(doc)
	if err != nil {
		return nil, err
	}
	links, err := model.PageLinks(index, model.BoardStride, pages)
	if err != nil {
		return nil, err
	}

	board := &model.Board{
		Name:   name,
		Pages:  pages,
		Links:  links,
		Topics: []model.Topic{},
	}

	dirs, err := repo.TopicDirs(name)
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		topic, ok, err := readTopic(repo, name, dir)
		if err != nil {
			return nil, err
		}
		if ok {
			board.Topics = append(board.Topics, topic)
		}
	}
	return board, nil
}

func readTopic(repo *Repository, board, dir string) (topic model.Topic, ok bool, err error) {
	logger := log.WithFields(log.Fields{"board": board, "topic": dir})

	pages, err := repo.PageFiles(board, dir)
	if err != nil {
		return
	}
	if len(pages) == 0 {
		logger.Warn("Topic directory is empty")
		return topic, false, nil
	}

	content, err := repo.ReadPage(board, dir, pages[0])
	if err != nil {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return
	}

	prev, found := doc.Find(`link[rel="prev"]`).First().Attr("href")
	if !found {
		logger.Warn("Topic page has no prev link")
		return topic, false, nil
	}
	if i := strings.Index(prev, ";"); i >= 0 {
		prev = prev[:i]
	}

	topic = model.Topic{
		Title:         PageTitle(doc),
		FirstPageLink: prev,
		Pages:         len(pages),
	}
	logger.Debugf("%s (%d pages)", topic.Title, topic.Pages)
	return topic, true, nil
}

// PageTitle returns the document title the way topics are keyed locally.
func PageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.ReplaceAll(title, "\u0085", " ")
	return strings.ReplaceAll(title, "\n", "")
}
