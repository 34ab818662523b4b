package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"github.com/zvonler/talkarchive/forumtest"
	"github.com/zvonler/talkarchive/model"
)

const base = "https://bitcointalk.org"

var now = time.Date(2023, 11, 2, 10, 0, 0, 0, time.UTC)

func document(t *testing.T, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.Nil(t, err)
	return doc
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("January 05, 2021, 03:04:05 PM", now)
	require.Nil(t, err)
	require.Equal(t, time.Date(2021, 1, 5, 15, 4, 5, 0, time.UTC), ts)

	ts, err = ParseTimestamp("« Reply #3 on: March 9, 2020, 3:00:01 AM »", now)
	require.Nil(t, err)
	require.Equal(t, time.Date(2020, 3, 9, 3, 0, 1, 0, time.UTC), ts)

	ts, err = ParseTimestamp("Last edit: Today at 01:02:03 PM by someone", now)
	require.Nil(t, err)
	require.Equal(t, time.Date(2023, 11, 2, 13, 2, 3, 0, time.UTC), ts)

	_, err = ParseTimestamp("yesterday-ish", now)
	require.NotNil(t, err)
}

func TestParseBoardInfos(t *testing.T) {
	boards := []forumtest.Board{
		{ID: 40, Name: "Pools", Topics: []forumtest.Topic{{ID: 1, Title: "a", Pages: 1}, {ID: 2, Title: "b", Pages: 1}}},
		{ID: 76, Name: "Hardware"},
	}
	infos, err := ParseBoardInfos(document(t, forumtest.IndexPage(base, boards)))
	require.Nil(t, err)
	require.Equal(t, []BoardInfo{
		{
			Name:        "Pools",
			Link:        base + "/index.php?board=40.0",
			Description: "About Pools",
			Moderator:   model.Author{Name: "mod", Profile: base + "/index.php?action=profile;u=1"},
			Posts:       4,
			Topics:      2,
		},
		{
			Name:        "Hardware",
			Link:        base + "/index.php?board=76.0",
			Description: "About Hardware",
			Moderator:   model.Author{Name: "mod", Profile: base + "/index.php?action=profile;u=1"},
		},
	}, infos)
}

func TestParsePosts(t *testing.T) {
	topic := forumtest.Topic{ID: 5, Title: "T1", Pages: 2}
	posts, err := ParsePosts(document(t, forumtest.TopicPage(base, topic, 1)), now)
	require.Nil(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, model.Author{Name: forumtest.Author(0), Profile: base + "/index.php?action=profile;u=10"}, posts[0].Author)
	require.Equal(t, time.Date(2021, 1, 5, 15, 4, 5, 0, time.UTC), posts[0].LastEdit)
	require.Equal(t, forumtest.PostText(topic, 1, 0)+"\nsecond line", posts[0].RawContent)
	require.Equal(t, `<div class="post">`+forumtest.PostText(topic, 1, 0)+`<br/>second line</div>`, posts[0].HTMLContent)

	require.Equal(t, forumtest.Author(1), posts[1].Author.Name)
	require.Equal(t, forumtest.PostText(topic, 1, 1)+"\nsecond line", posts[1].RawContent)
}

func TestParsePostsGuestAndAds(t *testing.T) {
	markup := `<html><body><form id="quickModForm"><table>
<tr><td class="windowbg"><table><tr>
<td class="poster_info"><b>Guest</b></td>
<td class="td_headerandpost"><table><tr><td valign="middle"><div class="smalltext">Today at 09:15:00 AM</div></td></tr></table>
<div class="post">hello <b>world</b></div></td>
</tr></table></td></tr>
<tr><td class="windowbg"><table><tr><td class="poster_info"><b>ad</b></td><td>Buy now</td></tr></table></td></tr>
</table></form></body></html>`

	posts, err := ParsePosts(document(t, markup), now)
	require.Nil(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, model.Author{Name: "Guest", Profile: NoProfile}, posts[0].Author)
	require.Equal(t, time.Date(2023, 11, 2, 9, 15, 0, 0, time.UTC), posts[0].LastEdit)
	require.Equal(t, "hello \nworld", posts[0].RawContent)
}

func TestParsePostsNoForm(t *testing.T) {
	_, err := ParsePosts(document(t, "<html><title>x</title></html>"), now)
	require.NotNil(t, err)
}

func TestParseTopic(t *testing.T) {
	topic := forumtest.Topic{ID: 5, Title: "T1", Pages: 2}
	info, err := ParseTopic(document(t, forumtest.TopicPage(base, topic, 0)), now)
	require.Nil(t, err)
	require.Equal(t, "T1", info.Title)
	require.Equal(t, forumtest.Author(0), info.StartedBy.Name)
	require.Equal(t, time.Date(2021, 1, 5, 15, 4, 5, 0, time.UTC), info.StartedAt)
}
