package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zvonler/talkarchive/archive"
	"github.com/zvonler/talkarchive/fetcher"
	"github.com/zvonler/talkarchive/model"
	"github.com/zvonler/talkarchive/reconcile"
)

const base = "https://bitcointalk.org/index.php?"

type recordingGetter struct {
	uris    []string
	onFetch func(n int)
}

func (g *recordingGetter) Fetch(ctx context.Context, uri string) (fetcher.Page, error) {
	if err := ctx.Err(); err != nil {
		return fetcher.Page{}, err
	}
	g.uris = append(g.uris, uri)
	if g.onFetch != nil {
		g.onFetch(len(g.uris))
	}
	return fetcher.Page{StatusCode: http.StatusOK, Body: "content of " + uri}, nil
}

func miningPlan() *model.Plan {
	online := model.NewListing(&model.Board{
		Name:  "Mining",
		Pages: 1,
		Links: []string{base + "board=14.0"},
		Topics: []model.Topic{
			{Title: "T1", FirstPageLink: base + "topic=5.0", Pages: 2, BoardPage: 1},
		},
	})
	return reconcile.Diff(online, model.NewListing())
}

func TestExecuteMiningScenario(t *testing.T) {
	root := filepath.Join(t.TempDir(), "BitcoinTalk-Forum")
	repo := archive.NewRepository(root)
	getter := &recordingGetter{}
	stats := new(fetcher.Stats)

	plan := miningPlan()
	require.Equal(t, []string{"Mining"}, plan.Names())

	d := &Driver{Getter: getter, Repo: repo, Stats: stats}
	require.Nil(t, d.Execute(context.Background(), plan))

	require.Equal(t, []string{
		base + "board=14.0",
		base + "topic=5.0",
		base + "topic=5.20",
	}, getter.uris)

	hash := archive.TopicDir("T1")
	for n, uri := range map[string]string{"1.html": base + "topic=5.0", "2.html": base + "topic=5.20"} {
		b, err := os.ReadFile(filepath.Join(root, "Mining", hash, n))
		require.Nil(t, err)
		require.Equal(t, "content of "+uri, string(b))
	}
	b, err := os.ReadFile(filepath.Join(root, "Mining", "Mining.html"))
	require.Nil(t, err)
	require.Equal(t, "content of "+base+"board=14.0", string(b))

	require.Equal(t, int64(2), stats.Pages.Load())
}

func TestExecuteRefetchesArchivedPages(t *testing.T) {
	repo := archive.NewRepository(t.TempDir())
	hash := archive.TopicDir("T1")
	require.Nil(t, repo.EnsureTopic("Mining", hash))
	require.Nil(t, repo.WritePage("Mining", hash, 1, "stale"))

	d := &Driver{Getter: &recordingGetter{}, Repo: repo}
	require.Nil(t, d.Execute(context.Background(), miningPlan()))

	content, err := repo.ReadPage("Mining", hash, 1)
	require.Nil(t, err)
	require.Equal(t, "content of "+base+"topic=5.0", content)
}

func TestExecuteEmptyPlan(t *testing.T) {
	getter := &recordingGetter{}
	d := &Driver{Getter: getter, Repo: archive.NewRepository(t.TempDir())}
	require.Nil(t, d.Execute(context.Background(), &model.Plan{}))
	require.Len(t, getter.uris, 0)
}

func TestExecuteCancelledMidTopic(t *testing.T) {
	repo := archive.NewRepository(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the second topic page fetch is interrupted
	getter := &recordingGetter{onFetch: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	stats := new(fetcher.Stats)
	d := &Driver{Getter: getter, Repo: repo, Stats: stats}

	err := d.Execute(ctx, miningPlan())
	require.True(t, errors.Is(err, ErrCancelled))
	require.True(t, errors.Is(err, context.Canceled))

	require.Len(t, getter.uris, 3)
	hash := archive.TopicDir("T1")
	pages, err := repo.PageFiles("Mining", hash)
	require.Nil(t, err)
	require.Equal(t, []int{1}, pages)
	require.Equal(t, int64(1), stats.Pages.Load())
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	getter := &recordingGetter{}
	d := &Driver{Getter: getter, Repo: archive.NewRepository(t.TempDir())}
	err := d.Execute(ctx, miningPlan())
	require.True(t, errors.Is(err, ErrCancelled))
	require.Len(t, getter.uris, 0)
}

func TestExecuteDelayInterrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	getter := &recordingGetter{}
	d := &Driver{Getter: getter, Repo: archive.NewRepository(t.TempDir()), Delay: time.Hour}

	start := time.Now()
	err := d.Execute(ctx, miningPlan())
	require.True(t, errors.Is(err, ErrCancelled))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), time.Minute)
	require.Len(t, getter.uris, 2)
}

func TestExecuteMalformedTopicLink(t *testing.T) {
	plan := &model.Plan{}
	plan.Add(&model.Board{
		Name:   "Mining",
		Pages:  1,
		Links:  []string{base + "board=14.0"},
		Topics: []model.Topic{{Title: "T1", FirstPageLink: "https://bitcointalk.org/nowhere", Pages: 1}},
	})

	d := &Driver{Getter: &recordingGetter{}, Repo: archive.NewRepository(t.TempDir())}
	err := d.Execute(context.Background(), plan)
	require.True(t, errors.Is(err, model.ErrMalformedLink))
	require.False(t, errors.Is(err, ErrCancelled))
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.now = func() time.Time { return time.Date(2023, 11, 2, 10, 4, 5, 0, time.UTC) }

	board := &model.Board{Name: "Mining", Pages: 12}
	topic := model.Topic{Title: "T1", Pages: 7, BoardPage: 3}
	p.Fetching(board, topic, 2)
	p.Saved(board, topic, 2)

	require.Equal(t, "\n2023-11-02 10:04:05\n"+
		"└── Mining (3/12)\n"+
		"    └── T1 (2/7)\n"+
		"Successfully downloaded `T1` (2/7)!\n", buf.String())
}

func TestExecuteReportsProgress(t *testing.T) {
	var buf bytes.Buffer
	d := &Driver{Getter: &recordingGetter{}, Repo: archive.NewRepository(t.TempDir()), Progress: NewPrinter(&buf, false)}
	require.Nil(t, d.Execute(context.Background(), miningPlan()))
	require.Contains(t, buf.String(), "    └── T1 (2/2)\n")
	require.Contains(t, buf.String(), "Successfully downloaded `T1` (1/2)!\n")
}
