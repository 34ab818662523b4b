package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zvonler/talkarchive/model"
)

const base = "https://bitcointalk.org/index.php?"

func topic(id, title string, pages, boardPage int) model.Topic {
	return model.Topic{Title: title, FirstPageLink: base + "topic=" + id + ".0", Pages: pages, BoardPage: boardPage}
}

func board(name, id string, pages int, topics ...model.Topic) *model.Board {
	links, _ := model.PageLinks(base+"board="+id+".0", model.BoardStride, pages)
	return &model.Board{Name: name, Pages: pages, Links: links, Topics: topics}
}

func snapshot(t *testing.T, v interface{}) string {
	b, err := json.Marshal(v)
	require.Nil(t, err)
	return string(b)
}

func TestDiffIdentityIgnoresBoardPage(t *testing.T) {
	online := model.NewListing(board("Pools", "40", 2, topic("1", "T1", 3, 2)))
	local := model.NewListing(board("Pools", "40", 1, topic("1", "T1", 3, 0)))
	require.True(t, Diff(online, local).Empty())
}

func TestDiffMinimality(t *testing.T) {
	online := model.NewListing(
		board("Pools", "40", 1, topic("1", "T1", 3, 1), topic("2", "T2", 1, 1)),
		board("Hardware", "76", 1, topic("3", "T3", 2, 1)),
	)
	local := model.NewListing(
		board("Hardware", "76", 1, topic("3", "T3", 2, 0)),
		board("Pools", "40", 1, topic("2", "T2", 1, 0), topic("1", "T1", 3, 0)),
	)
	plan := Diff(online, local)
	require.True(t, plan.Empty())
	require.Equal(t, "[]", snapshot(t, plan))
}

func TestDiffNewBoardIsCopiedWhole(t *testing.T) {
	mining := board("Mining", "14", 3, topic("1", "T1", 2, 1), topic("2", "T2", 1, 3))
	online := model.NewListing(mining)

	plan := Diff(online, model.NewListing())
	require.Equal(t, []string{"Mining"}, plan.Names())
	planned, _ := plan.Get("Mining")
	require.Equal(t, mining, planned)
	require.NotSame(t, mining, planned)
}

func TestDiffChangedTopics(t *testing.T) {
	online := model.NewListing(
		board("Pools", "40", 3,
			topic("1", "T1", 4, 1),          // grew a page
			topic("2", "T2", 1, 1),          // unchanged
			topic("3", "T3 (edited)", 1, 2), // renamed
			topic("4", "T4", 1, 3)),         // new
		board("Hardware", "76", 1, topic("5", "T5", 1, 1)),
	)
	local := model.NewListing(
		board("Pools", "40", 2,
			topic("1", "T1", 3, 0),
			topic("2", "T2", 1, 0),
			topic("3", "T3", 1, 0)),
		board("Hardware", "76", 1, topic("5", "T5", 1, 0)),
	)

	plan := Diff(online, local)
	require.Equal(t, []string{"Pools"}, plan.Names())

	pools, _ := plan.Get("Pools")
	// online links and page count, not the archived ones
	require.Equal(t, 3, pools.Pages)
	require.Len(t, pools.Links, 3)
	require.Equal(t, []model.Topic{
		topic("1", "T1", 4, 1),
		topic("3", "T3 (edited)", 1, 2),
		topic("4", "T4", 1, 3),
	}, pools.Topics)
}

func TestDiffMonotonicity(t *testing.T) {
	online := model.NewListing(board("Pools", "40", 1, topic("1", "T1", 1, 1)))
	local := model.NewListing(
		board("Pools", "40", 1, topic("1", "T1", 1, 0), topic("9", "Gone", 5, 0)),
		board("Archived only", "99", 1, topic("8", "Old", 1, 0)),
	)

	plan := Diff(online, local)
	require.True(t, plan.Empty())

	// nothing archived is dropped from the local state either
	pools, _ := local.Get("Pools")
	require.Len(t, pools.Topics, 2)
	require.Equal(t, 2, local.Len())
}

func TestDiffDoesNotMutateInputs(t *testing.T) {
	online := model.NewListing(
		board("Pools", "40", 1, topic("1", "T1", 2, 1), topic("2", "T2", 1, 1)),
		board("Mining", "14", 1, topic("3", "T3", 1, 1)),
	)
	local := model.NewListing(board("Pools", "40", 1, topic("1", "T1", 1, 0)))

	onlineBefore := snapshot(t, online)
	localBefore := snapshot(t, local)

	plan := Diff(online, local)
	planned, _ := plan.Get("Pools")
	planned.Topics[0].Title = "changed"
	planned.Links[0] = "changed"
	mining, _ := plan.Get("Mining")
	mining.Topics = append(mining.Topics, topic("7", "T7", 1, 1))

	require.Equal(t, onlineBefore, snapshot(t, online))
	require.Equal(t, localBefore, snapshot(t, local))
}

func TestFullRefresh(t *testing.T) {
	online := model.NewListing(
		board("Pools", "40", 1, topic("1", "T1", 2, 1)),
		board("Mining", "14", 2, topic("2", "T2", 1, 2)),
	)
	local := model.NewListing(
		board("Pools", "40", 1, topic("1", "T1", 2, 0)),
		board("Mining", "14", 2, topic("2", "T2", 1, 0)),
	)
	require.True(t, Diff(online, local).Empty())

	plan := FullRefresh(online)
	require.False(t, plan.Empty())
	require.Equal(t, snapshot(t, online), snapshot(t, plan))
}

func TestEmptyOnline(t *testing.T) {
	local := model.NewListing(board("Pools", "40", 1, topic("1", "T1", 2, 0)))
	require.True(t, Diff(model.NewListing(), local).Empty())
	require.True(t, FullRefresh(model.NewListing()).Empty())
}
