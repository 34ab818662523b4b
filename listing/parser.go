package listing

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/zvonler/talkarchive/model"
)

var ErrUnexpectedMarkup = errors.New("unexpected markup")

const (
	// Board index rows with any other cell count are headers or separators
	// (child board lists span the whole row).
	boardRowCells = 4
	// Topic rows: two icons, subject, starter, replies, views, last post.
	topicRowCells = 7

	boardTableSelector = `table.bordercolor[cellpadding="5"]`
	topicTableSelector = `table.bordercolor[cellpadding="4"]`
)

// BoardRef is a board as listed on the board index page.
type BoardRef struct {
	Name string
	Link string
}

func ParseBoardIndex(r io.Reader) ([]BoardRef, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find(boardTableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no board table", ErrUnexpectedMarkup)
	}

	var refs []BoardRef
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.ChildrenFiltered("td").Length() != boardRowCells {
			return
		}
		anchors := row.Find("a")
		if anchors.Length() < 2 {
			return
		}
		anchor := anchors.Eq(1)
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		refs = append(refs, BoardRef{Name: CleanText(anchor.Text()), Link: href})
	})
	return refs, nil
}

// ParseTopics extracts the topics of one board listing page. boardPage is the
// 1-based index of that page within the board.
func ParseTopics(r io.Reader, boardPage int) ([]model.Topic, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find(topicTableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no topic table on board page %d", ErrUnexpectedMarkup, boardPage)
	}

	topics := make([]model.Topic, 0)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != topicRowCells {
			return
		}
		subject := cells.Eq(2)
		anchor := subject.Find("a").Not(".navPages").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		topics = append(topics, model.Topic{
			Title:         CleanText(anchor.Text()),
			FirstPageLink: href,
			Pages:         PageCount(subject.Find("small a")),
			BoardPage:     boardPage,
		})
	})
	return topics, nil
}

// PageCount interprets the anchors of a "« 1 2 3 ... N All »" pagination
// control. With more than one anchor the count is the text of the
// second-to-last one; otherwise the resource has a single page.
func PageCount(anchors *goquery.Selection) int {
	if anchors.Length() <= 1 {
		return 1
	}
	if n, err := strconv.Atoi(strings.TrimSpace(anchors.Eq(-2).Text())); err == nil && n > 0 {
		return n
	}

	highest := 1
	anchors.Each(func(_ int, a *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(a.Text())); err == nil && n > highest {
			highest = n
		}
	})
	return highest
}

// BoardPageCount reads the pagination control of a board listing page.
func BoardPageCount(doc *goquery.Document) (int, error) {
	nav := doc.Find("td#toppages").First()
	if nav.Length() == 0 {
		nav = doc.Find("td.middletext").First()
	}
	if nav.Length() == 0 {
		return 0, fmt.Errorf("%w: no pagination control", ErrUnexpectedMarkup)
	}
	return PageCount(nav.Find("a.navPages")), nil
}

// CleanText trims s and replaces non-breaking spaces.
func CleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}
