package session

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zvonler/talkarchive/database"
)

type Report struct {
	Mode    string
	Started time.Time
	Check   time.Duration
	// Download is nil when the run ended before downloading began.
	Download  *time.Duration
	Total     time.Duration
	Failures  int64
	Pages     int64
	Cancelled bool
}

func (r *Report) Write(w io.Writer) error {
	var sb strings.Builder
	if r.Cancelled {
		sb.WriteString("\nCtrl+C detected!\n")
	}
	download := "Undefined"
	if r.Download != nil {
		download = r.Download.String()
	}
	sb.WriteString("\n#----------------------- Infos -----------------------#\n")
	fmt.Fprintf(&sb, "\tChecking duration:\t%s\n", r.Check)
	fmt.Fprintf(&sb, "\tDownload duration:\t%s\n", download)
	fmt.Fprintf(&sb, "\tTotal duration:\t\t%s\n", r.Total)
	fmt.Fprintf(&sb, "\tPages downloaded:\t%d\n", r.Pages)
	fmt.Fprintf(&sb, "\tFailures:\t\t%d\n", r.Failures)
	sb.WriteString("#-----------------------------------------------------#\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Report) Run() database.Run {
	return database.Run{
		Started:   r.Started,
		Mode:      r.Mode,
		Check:     r.Check,
		Download:  r.Download,
		Total:     r.Total,
		Failures:  r.Failures,
		Pages:     r.Pages,
		Cancelled: r.Cancelled,
	}
}
