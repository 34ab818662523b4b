package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zvonler/talkarchive/model"
)

func TestBasicDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := OpenArchiveDB(tmpDir + "/test.db")
	require.Equal(t, nil, err)
	defer db.Close()

	boardId, err := db.InsertOrUpdateBoard("Pools", "https://bitcointalk.org/index.php?board=40.0", 3, true)
	require.Equal(t, nil, err)
	require.Greater(t, boardId, BoardID(0))

	{
		// same board again
		altId, err := db.InsertOrUpdateBoard("Pools", "https://bitcointalk.org/index.php?board=40.0", 4, true)
		require.Equal(t, nil, err)
		require.Equal(t, boardId, altId)
	}

	starter := model.Author{Name: "satoshi", Profile: "https://bitcointalk.org/index.php?action=profile;u=3"}
	startedAt := time.Unix(1231006505, 0)
	topicId, err := db.InsertOrUpdateTopic(boardId, "abc123", "Genesis", starter, startedAt, 2)
	require.Equal(t, nil, err)
	require.Greater(t, topicId, TopicID(0))

	posts := []model.Post{
		{Author: starter, LastEdit: startedAt, RawContent: "Chancellor on brink of second bailout"},
		{Author: model.Author{Name: "hal", Profile: "noprofile"}, LastEdit: startedAt.Add(time.Hour), RawContent: "Running bitcoin"},
	}
	require.Nil(t, db.AddPosts(topicId, 1, posts))
	// storing a page again replaces it
	require.Nil(t, db.AddPosts(topicId, 1, posts))

	require.Equal(t, []string{posts[0].RawContent, posts[1].RawContent}, db.PostContents(""))
	require.Equal(t, 2, len(db.PostContents("Pools")))
	require.Equal(t, 0, len(db.PostContents("Hardware")))

	matches := db.GrepPosts("bitcoin")
	require.Equal(t, 1, len(matches))
	require.Equal(t, PostMatch{
		Board:    "Pools",
		Topic:    "Genesis",
		Dir:      "abc123",
		Page:     1,
		Author:   "hal",
		LastEdit: startedAt.Add(time.Hour),
		Content:  "Running bitcoin",
	}, matches[0])

	require.Equal(t, 2, len(db.GrepPosts("(?i)b")))
	require.Equal(t, 0, len(db.GrepPosts("bailout", "Running")))
}

func TestRuns(t *testing.T) {
	db, err := OpenArchiveDB(t.TempDir() + "/test.db")
	require.Equal(t, nil, err)
	defer db.Close()

	require.Equal(t, 0, len(db.Runs()))

	download := 3 * time.Second
	started := time.Unix(1700000000, 0)
	_, err = db.RecordRun(Run{Started: started, Mode: "incremental", Check: time.Second, Download: &download, Total: 4 * time.Second, Failures: 2, Pages: 10})
	require.Equal(t, nil, err)
	_, err = db.RecordRun(Run{Started: started, Mode: "full", Check: time.Second, Total: time.Second, Cancelled: true})
	require.Equal(t, nil, err)

	runs := db.Runs()
	require.Equal(t, 2, len(runs))
	require.Equal(t, "incremental", runs[0].Mode)
	require.Equal(t, download, *runs[0].Download)
	require.Equal(t, int64(2), runs[0].Failures)
	require.Equal(t, int64(10), runs[0].Pages)
	require.Equal(t, started, runs[0].Started)
	require.False(t, runs[0].Cancelled)

	require.Nil(t, runs[1].Download)
	require.True(t, runs[1].Cancelled)
}

func TestReopenDatabase(t *testing.T) {
	path := t.TempDir() + "/test.db"

	db, err := OpenArchiveDB(path)
	require.Equal(t, nil, err)
	_, err = db.InsertOrUpdateBoard("Pools", "link", 1, false)
	require.Equal(t, nil, err)
	db.Close()

	db, err = OpenArchiveDB(path)
	require.Equal(t, nil, err)
	defer db.Close()
	id, err := db.InsertOrUpdateBoard("Pools", "link", 1, true)
	require.Equal(t, nil, err)
	require.Equal(t, BoardID(1), id)
}
