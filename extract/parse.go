package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/listing"
	"github.com/zvonler/talkarchive/model"
	"golang.org/x/net/html"
)

const (
	TimestampLayout = "January 2, 2006, 3:04:05 PM"
	// NoProfile is the profile of posters without a profile link, such as
	// deleted accounts.
	NoProfile = "noprofile"
)

var (
	timestampRe = regexp.MustCompile(`(Today at|[A-Z][a-z]+ \d{1,2}, \d{4},) \d{1,2}:\d{2}:\d{2} [AP]M`)
	postsRe     = regexp.MustCompile(`(\d+) Posts`)
	topicsRe    = regexp.MustCompile(`(\d+) Topics`)
)

// ParseTimestamp finds the first forum date in s. Dates shown as "Today at"
// are resolved against now.
func ParseTimestamp(s string, now time.Time) (time.Time, error) {
	match := timestampRe.FindString(s)
	if match == "" {
		return time.Time{}, fmt.Errorf("no timestamp in %q", s)
	}
	match = strings.Replace(match, "Today at", now.Format("January 2, 2006,"), 1)
	return time.ParseInLocation(TimestampLayout, match, now.Location())
}

// BoardInfo is a board as listed on the board index page.
type BoardInfo struct {
	Name        string       `json:"title"`
	Link        string       `json:"link"`
	Description string       `json:"description"`
	Moderator   model.Author `json:"moderator"`
	Posts       int          `json:"posts"`
	Topics      int          `json:"topics"`
	Available   bool         `json:"available"`
}

func ParseBoardInfos(doc *goquery.Document) ([]BoardInfo, error) {
	table := doc.Find(`table.bordercolor[cellpadding="5"]`).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no board table", listing.ErrUnexpectedMarkup)
	}

	var infos []BoardInfo
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != 4 {
			return
		}
		anchors := row.Find("a")
		if anchors.Length() < 2 {
			return
		}

		info := BoardInfo{
			Name: listing.CleanText(anchors.Eq(1).Text()),
			Link: anchors.Eq(1).AttrOr("href", ""),
		}
		if lines := textLines(cells.Eq(1).Text()); len(lines) > 2 {
			info.Description = lines[1]
		}
		if mod := cells.Eq(1).Find(`a[title="Board Moderator"]`).First(); mod.Length() > 0 {
			info.Moderator = model.Author{Name: mod.Text(), Profile: mod.AttrOr("href", "")}
		}
		counts := cells.Eq(2).Text()
		if m := postsRe.FindStringSubmatch(counts); m != nil {
			info.Posts, _ = strconv.Atoi(m[1])
		}
		if m := topicsRe.FindStringSubmatch(counts); m != nil {
			info.Topics, _ = strconv.Atoi(m[1])
		}
		infos = append(infos, info)
	})
	return infos, nil
}

func textLines(s string) (lines []string) {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return
}

// ParsePosts extracts the posts of a topic page. Rows of the moderation form
// without a poster or a post body, such as ads, are ignored.
func ParsePosts(doc *goquery.Document, now time.Time) ([]model.Post, error) {
	form := doc.Find("form#quickModForm").First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("%w: no post form", listing.ErrUnexpectedMarkup)
	}

	posts := make([]model.Post, 0)
	var err error
	form.Find("td.poster_info").EachWithBreak(func(_ int, info *goquery.Selection) bool {
		row := info.Parent()
		body := row.Find("div.post").First()
		if body.Length() == 0 {
			return true
		}

		var content string
		if content, err = goquery.OuterHtml(body); err != nil {
			return false
		}
		post := model.Post{
			Author:      posterOf(info),
			HTMLContent: content,
			RawContent:  RawText(body),
		}
		if post.LastEdit, err = ParseTimestamp(postDate(row), now); err != nil {
			return false
		}
		posts = append(posts, post)
		return true
	})
	return posts, err
}

func posterOf(info *goquery.Selection) model.Author {
	if a := info.Find("b a").First(); a.Length() > 0 {
		return model.Author{Name: strings.TrimSpace(a.Text()), Profile: a.AttrOr("href", NoProfile)}
	}
	return model.Author{Name: strings.TrimSpace(info.Find("b").First().Text()), Profile: NoProfile}
}

func postDate(row *goquery.Selection) string {
	if edited := row.Find("span.edited").First(); edited.Length() > 0 {
		return edited.Text()
	}
	return row.Find(`td[valign="middle"] div.smalltext`).First().Text()
}

// RawText returns the text nodes under sel separated by newlines.
func RawText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if n.Data != "" {
				parts = append(parts, n.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// Topic is the summary of an archived topic taken from its first page.
type Topic struct {
	Title     string
	StartedBy model.Author
	StartedAt time.Time
}

func ParseTopic(doc *goquery.Document, now time.Time) (Topic, error) {
	topic := Topic{Title: archive.PageTitle(doc)}

	posts, err := ParsePosts(doc, now)
	if err != nil {
		return topic, err
	}
	if len(posts) == 0 {
		return topic, fmt.Errorf("%w: no posts on first page", listing.ErrUnexpectedMarkup)
	}
	topic.StartedBy = posts[0].Author
	topic.StartedAt = posts[0].LastEdit
	return topic, nil
}
