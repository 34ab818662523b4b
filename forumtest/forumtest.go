// Package forumtest renders pages shaped like the archived forum's markup and
// serves them over httptest for package tests.
package forumtest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const (
	RootID   = 1
	PostDate = "January 05, 2021, 03:04:05 PM"
)

type Topic struct {
	ID    int
	Title string
	Pages int
}

type Board struct {
	ID            int
	Name          string
	Topics        []Topic
	TopicsPerPage int
}

// Pages returns the number of listing pages of the board.
func (b Board) Pages() int {
	per := b.perPage()
	if len(b.Topics) <= per {
		return 1
	}
	return (len(b.Topics) + per - 1) / per
}

func (b Board) perPage() int {
	if b.TopicsPerPage <= 0 {
		return 40
	}
	return b.TopicsPerPage
}

func BoardLink(base string, id int) string {
	return fmt.Sprintf("%s/index.php?board=%d.0", base, id)
}

func TopicLink(base string, id int) string {
	return fmt.Sprintf("%s/index.php?topic=%d.0", base, id)
}

// IndexPage lists boards the way the forum's child board table does.
func IndexPage(base string, boards []Board) string {
	var sb strings.Builder
	sb.WriteString(`<html><head><title>Mining</title></head><body><div id="bodyarea">`)
	sb.WriteString(`<table border="0" width="100%" cellspacing="1" cellpadding="5" class="bordercolor">`)
	sb.WriteString(`<tr><td colspan="4" class="catbg">Child Boards</td></tr>`)
	for _, b := range boards {
		link := BoardLink(base, b.ID)
		fmt.Fprintf(&sb, `<tr>
<td class="windowbg"><a href="%s"><img src="on.gif" alt="No New Posts"/></a></td>
<td class="windowbg2"><b><a href="%s" name="b%d">%s</a></b>
<br/>About %s
<div class="smalltext">Moderator: <a href="%s/index.php?action=profile;u=1" title="Board Moderator">mod</a></div></td>
<td class="windowbg">%d Posts<br/>%d Topics</td>
<td class="windowbg2"><span class="smalltext">Last post on %s</span></td>
</tr>`, link, link, b.ID, html.EscapeString(b.Name), html.EscapeString(b.Name), base,
			len(b.Topics)*2, len(b.Topics), PostDate)
	}
	sb.WriteString(`</table></div></body></html>`)
	return sb.String()
}

// BoardPage renders the zero-based listing page of a board.
func BoardPage(base string, b Board, page int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<html><head><title>%s</title><link rel="index" href="%s"/></head><body>`,
		html.EscapeString(b.Name), BoardLink(base, b.ID))

	sb.WriteString(`<table><tr><td id="toppages" class="middletext">Pages: `)
	for i := 0; i < b.Pages(); i++ {
		if i == page {
			fmt.Fprintf(&sb, `[<b>%d</b>] `, i+1)
		} else {
			fmt.Fprintf(&sb, `<a class="navPages" href="%s/index.php?board=%d.%d">%d</a> `, base, b.ID, i*40, i+1)
		}
	}
	if page < b.Pages()-1 {
		fmt.Fprintf(&sb, `<a class="navPages" href="%s/index.php?board=%d.%d">&#187;</a>`, base, b.ID, (page+1)*40)
	}
	sb.WriteString(`</td></tr></table>`)

	sb.WriteString(`<div class="tborder"><table border="0" width="100%" cellspacing="1" cellpadding="4" class="bordercolor">`)
	sb.WriteString(`<tr><td width="9%" colspan="2" class="catbg3"></td><td class="catbg3">Subject</td>` +
		`<td class="catbg3">Started by</td><td class="catbg3">Replies</td><td class="catbg3">Views</td><td class="catbg3">Last post</td></tr>`)

	per := b.perPage()
	for i := page * per; i < len(b.Topics) && i < (page+1)*per; i++ {
		t := b.Topics[i]
		fmt.Fprintf(&sb, `<tr>
<td class="windowbg2"><img src="xx.gif"/></td><td class="windowbg2"><img src="topic.gif"/></td>
<td class="windowbg"><span id="msg_%d"><a href="%s">%s</a></span>%s</td>
<td class="windowbg2"><a href="%s/index.php?action=profile;u=2">starter</a></td>
<td class="windowbg">%d</td><td class="windowbg">%d</td>
<td class="windowbg2"><span class="smalltext">%s</span></td>
</tr>`, t.ID, TopicLink(base, t.ID), html.EscapeString(t.Title), topicNav(base, t), base, t.Pages*20, t.Pages*100, PostDate)
	}
	sb.WriteString(`</table></div></body></html>`)
	return sb.String()
}

func topicNav(base string, t Topic) string {
	if t.Pages <= 1 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, ` <small id="pages%d">&#171; `, t.ID)
	for i := 0; i < t.Pages; i++ {
		fmt.Fprintf(&sb, `<a class="navPages" href="%s/index.php?topic=%d.%d">%d</a> `, base, t.ID, i*20, i+1)
	}
	fmt.Fprintf(&sb, ` <a href="%s/index.php?topic=%d.0;all">All</a> &#187;</small>`, base, t.ID)
	return sb.String()
}

// Author returns the name of the author of a post on a topic page.
func Author(post int) string {
	return fmt.Sprintf("user%d", post)
}

// PostText returns the text of a post on a zero-based topic page.
func PostText(t Topic, page, post int) string {
	return fmt.Sprintf("Post %d on page %d of %s", post+1, page+1, t.Title)
}

// TopicPage renders a zero-based topic page holding two posts.
func TopicPage(base string, t Topic, page int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<html><head><title>%s</title><link rel="prev" href="%s;prev_next=prev"/></head><body>`,
		html.EscapeString(t.Title), TopicLink(base, t.ID))
	sb.WriteString(`<form action="index.php" method="post" id="quickModForm" name="quickModForm"><table>`)
	for post := 0; post < 2; post++ {
		date := PostDate
		if post == 1 {
			date = `<span class="edited">` + PostDate + `</span>`
		}
		fmt.Fprintf(&sb, `<tr><td class="windowbg"><table><tr>
<td class="poster_info"><b><a href="%s/index.php?action=profile;u=%d" title="View the profile of %s">%s</a></b>
<div class="smalltext">Member</div></td>
<td class="td_headerandpost"><table><tr><td valign="middle"><div class="subject"><a href="%s">%s</a></div>
<div class="smalltext">%s</div></td></tr></table><hr/>
<div class="post">%s<br/>second line</div></td>
</tr></table></td></tr>`, base, post+10, Author(post), Author(post), TopicLink(base, t.ID),
			html.EscapeString(t.Title), date, html.EscapeString(PostText(t, page, post)))
	}
	sb.WriteString(`</table></form></body></html>`)
	return sb.String()
}

/*---------------------------------------------------------------------------*/

// Server serves a fake forum. The board index lives at RootURL.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	boards []Board
	hits   map[string]int
}

func NewServer(boards ...Board) *Server {
	s := &Server{boards: boards, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *Server) RootURL() string {
	return BoardLink(s.URL, RootID)
}

// SetBoards replaces the served forum content.
func (s *Server) SetBoards(boards ...Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = boards
}

// Hits returns how often a query such as "topic=5.20" was requested.
func (s *Server) Hits(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[query]
}

// TotalHits returns the number of requests served.
func (s *Server) TotalHits() (n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hits {
		n += h
	}
	return
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.RawQuery]++
	boards := s.boards
	s.mu.Unlock()

	kind, id, offset, ok := parseQuery(r.URL.RawQuery)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
	switch kind {
	case "board":
		if id == RootID {
			fmt.Fprint(w, IndexPage(s.URL, boards))
			return
		}
		for _, b := range boards {
			if b.ID == id {
				fmt.Fprint(w, BoardPage(s.URL, b, offset/40))
				return
			}
		}
	case "topic":
		for _, b := range boards {
			for _, t := range b.Topics {
				if t.ID == id {
					fmt.Fprint(w, TopicPage(s.URL, t, offset/20))
					return
				}
			}
		}
	}
	http.NotFound(w, r)
}

func parseQuery(q string) (kind string, id, offset int, ok bool) {
	kind, value, found := strings.Cut(q, "=")
	if !found {
		return
	}
	idStr, offStr, found := strings.Cut(value, ".")
	if !found {
		return
	}
	var err error
	if id, err = strconv.Atoi(idStr); err != nil {
		return
	}
	if offset, err = strconv.Atoi(offStr); err != nil {
		return
	}
	return kind, id, offset, true
}
