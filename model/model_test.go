package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicSameAsIgnoresBoardPage(t *testing.T) {
	a := Topic{Title: "T1", FirstPageLink: "https://forum/index.php?topic=1.0", Pages: 2, BoardPage: 1}
	b := a
	b.BoardPage = 7
	require.True(t, a.SameAs(b))

	b.Pages = 3
	require.False(t, a.SameAs(b))

	b = a
	b.Title = "T1 (edited)"
	require.False(t, a.SameAs(b))
}

func TestListingKeepsInsertionOrder(t *testing.T) {
	l := NewListing(&Board{Name: "b"}, &Board{Name: "a"}, &Board{Name: "c"})
	require.Equal(t, []string{"b", "a", "c"}, l.Names())

	l.Add(&Board{Name: "a", Pages: 3})
	require.Equal(t, []string{"b", "a", "c"}, l.Names())
	board, ok := l.Get("a")
	require.True(t, ok)
	require.Equal(t, 3, board.Pages)

	_, ok = l.Get("missing")
	require.False(t, ok)

	var nilListing *Listing
	require.Equal(t, 0, nilListing.Len())
	_, ok = nilListing.Get("a")
	require.False(t, ok)
}

func TestListingJSON(t *testing.T) {
	l := NewListing(&Board{
		Name:  "Mining",
		Pages: 1,
		Links: []string{"https://forum/index.php?board=14.0"},
		Topics: []Topic{
			{Title: "T1", FirstPageLink: "https://forum/index.php?topic=5.0", Pages: 2, BoardPage: 1},
		},
	})

	data, err := json.Marshal(l)
	require.Nil(t, err)

	var back Listing
	require.Nil(t, json.Unmarshal(data, &back))
	require.Equal(t, l.Names(), back.Names())
	board, _ := back.Get("Mining")
	require.Equal(t, 1, len(board.Topics))
	require.Equal(t, 2, back.PageCount())

	empty, err := json.Marshal(&Plan{})
	require.Nil(t, err)
	require.Equal(t, "[]", string(empty))
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := &Board{Name: "b", Links: []string{"x"}, Topics: []Topic{{Title: "t"}}}
	clone := orig.Clone()
	clone.Links[0] = "y"
	clone.Topics[0].Title = "u"
	require.Equal(t, "x", orig.Links[0])
	require.Equal(t, "t", orig.Topics[0].Title)

	summary := orig.Summary()
	require.Equal(t, 0, len(summary.Topics))
}
