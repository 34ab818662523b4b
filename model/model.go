package model

import (
	"encoding/json"
	"time"
)

// Topic is one discussion thread as seen on a board listing page or
// reconstructed from the local archive.
type Topic struct {
	Title         string `json:"title"`
	FirstPageLink string `json:"first_page_link"`
	Pages         int    `json:"pages"`
	BoardPage     int    `json:"boardpage,omitempty"`
}

// SameAs reports whether two topics are structurally identical. BoardPage is
// presentation metadata and is not compared.
func (t Topic) SameAs(o Topic) bool {
	return t.FirstPageLink == o.FirstPageLink && t.Title == o.Title && t.Pages == o.Pages
}

type Board struct {
	Name   string   `json:"name"`
	Pages  int      `json:"pages"`
	Links  []string `json:"links"`
	Topics []Topic  `json:"topics"`
}

// HasTopic reports whether the board holds a topic structurally equal to t.
func (b *Board) HasTopic(t Topic) bool {
	for _, candidate := range b.Topics {
		if candidate.SameAs(t) {
			return true
		}
	}
	return false
}

// Summary returns a copy of the board without its topics.
func (b *Board) Summary() *Board {
	return &Board{
		Name:   b.Name,
		Pages:  b.Pages,
		Links:  append([]string(nil), b.Links...),
		Topics: []Topic{},
	}
}

func (b *Board) Clone() *Board {
	clone := b.Summary()
	clone.Topics = append(clone.Topics, b.Topics...)
	return clone
}

// Listing is an insertion-ordered set of boards keyed by name. The zero value
// is ready to use.
type Listing struct {
	boards []*Board
	index  map[string]int
}

func NewListing(boards ...*Board) *Listing {
	l := new(Listing)
	for _, b := range boards {
		l.Add(b)
	}
	return l
}

// Add inserts a board, replacing an existing board with the same name in place.
func (l *Listing) Add(b *Board) {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[b.Name]; ok {
		l.boards[i] = b
		return
	}
	l.index[b.Name] = len(l.boards)
	l.boards = append(l.boards, b)
}

func (l *Listing) Get(name string) (*Board, bool) {
	if l == nil || l.index == nil {
		return nil, false
	}
	if i, ok := l.index[name]; ok {
		return l.boards[i], true
	}
	return nil, false
}

func (l *Listing) Boards() []*Board {
	if l == nil {
		return nil
	}
	return l.boards
}

func (l *Listing) Names() []string {
	names := make([]string, 0, l.Len())
	for _, b := range l.Boards() {
		names = append(names, b.Name)
	}
	return names
}

func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.boards)
}

// TopicCount returns the number of topics across all boards.
func (l *Listing) TopicCount() (n int) {
	for _, b := range l.Boards() {
		n += len(b.Topics)
	}
	return
}

// PageCount returns the number of topic pages across all boards.
func (l *Listing) PageCount() (n int) {
	for _, b := range l.Boards() {
		for _, t := range b.Topics {
			n += t.Pages
		}
	}
	return
}

func (l Listing) MarshalJSON() ([]byte, error) {
	if l.boards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.boards)
}

func (l *Listing) UnmarshalJSON(data []byte) error {
	var boards []*Board
	if err := json.Unmarshal(data, &boards); err != nil {
		return err
	}
	*l = Listing{}
	for _, b := range boards {
		l.Add(b)
	}
	return nil
}

// Plan is the set of boards and topics a run has to fetch. Board entries
// carry the online page links of the board.
type Plan struct {
	Listing
}

// Empty is true when the plan has no board entries.
func (p *Plan) Empty() bool {
	return p == nil || p.Len() == 0
}

/*---------------------------------------------------------------------------*/

type Author struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

// Post is one message extracted from an archived topic page.
type Post struct {
	Author      Author    `json:"author"`
	LastEdit    time.Time `json:"last_edit"`
	HTMLContent string    `json:"html_content"`
	RawContent  string    `json:"raw_content"`
}
