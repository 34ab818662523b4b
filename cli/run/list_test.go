package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zvonler/talkarchive/database"
)

func TestRunRows(t *testing.T) {
	download := 2 * time.Second
	started := time.Date(2023, 11, 2, 10, 0, 0, 0, time.Local)
	rows := runRows([]database.Run{
		{ID: 1, Started: started, Mode: "incremental", Check: time.Second, Total: time.Second},
		{ID: 2, Started: started, Mode: "full", Check: time.Second, Download: &download, Total: 3 * time.Second, Pages: 4, Failures: 1, Cancelled: true},
	})
	require.Equal(t, []string{
		"RunID | Started | Mode | Checking | Download | Total | Pages | Failures | Cancelled",
		"1 | 2023-11-02 10:00:00 | incremental | 1s | Undefined | 1s | 0 | 0 | false",
		"2 | 2023-11-02 10:00:00 | full | 1s | 2s | 3s | 4 | 1 | true",
	}, rows)
}
