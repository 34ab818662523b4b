package download

import (
	"fmt"
	"io"
	"time"

	"github.com/bit101/go-ansi"
	"github.com/zvonler/talkarchive/model"
)

// Printer writes the download progress as a small tree:
//
//	└── Pools (3/12)
//	    └── Some topic (2/7)
type Printer struct {
	w     io.Writer
	color bool
	now   func() time.Time
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color, now: time.Now}
}

func (p *Printer) Fetching(board *model.Board, topic model.Topic, page int) {
	boardLine := fmt.Sprintf("└── %s (%d/%d)\n", board.Name, topic.BoardPage, board.Pages)
	topicLine := fmt.Sprintf("    └── %s (%d/%d)\n", topic.Title, page, topic.Pages)

	fmt.Fprintf(p.w, "\n%s\n", p.now().Format(time.DateTime))
	if p.color {
		ansi.Fprintf(p.w, ansi.Cyan, "%s", boardLine)
		ansi.Fprintf(p.w, ansi.Yellow, "%s", topicLine)
	} else {
		fmt.Fprint(p.w, boardLine, topicLine)
	}
}

func (p *Printer) Saved(board *model.Board, topic model.Topic, page int) {
	line := fmt.Sprintf("Successfully downloaded `%s` (%d/%d)!\n", topic.Title, page, topic.Pages)
	if p.color {
		ansi.Fprintf(p.w, ansi.Green, "%s", line)
	} else {
		fmt.Fprint(p.w, line)
	}
}
