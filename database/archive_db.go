package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/model"
	"github.com/zvonler/talkarchive/utils"
)

const driverName = "sqlite3_regex"

type BoardID uint
type AuthorID uint
type TopicID uint
type RunID uint

type ArchiveDB struct {
	Filename         string
	DB               *sql.DB
	insertBoardStmt  string
	insertAuthorStmt string
	insertTopicStmt  string
	insertPostStmt   string
	insertRunStmt    string
}

var registerDriver sync.Once

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

// OpenArchiveDB opens the database at path, creating the schema when the
// file does not exist yet. The REGEXP operator is available in queries.
func OpenArchiveDB(path string) (adb *ArchiveDB, err error) {
	registerDriver.Do(func() {
		sql.Register(driverName,
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})

	var existing bool
	if existing, err = utils.PathExists(path); err != nil {
		return
	}

	var db *sql.DB
	if db, err = sql.Open(driverName, path); err != nil {
		return
	}

	adb = &ArchiveDB{Filename: path, DB: db}
	if !existing {
		if err = adb.initTables(); err != nil {
			db.Close()
			return nil, err
		}
	}
	adb.initSQLStatements()
	return
}

func (adb *ArchiveDB) Close() {
	adb.DB.Close()
}

type RowsReceiver func(*sql.Rows) bool

func (adb *ArchiveDB) ForEachRowOrPanic(receiver RowsReceiver, stmt string, params ...any) {
	if rows, err := adb.DB.Query(stmt, params...); err == nil {
		defer rows.Close()
		for rows.Next() {
			if !receiver(rows) {
				break
			}
		}
	} else {
		panic(err)
	}
}

func (adb *ArchiveDB) ForSingleRowOrPanic(receiver RowsReceiver, stmt string, params ...any) {
	var rowReceived bool
	singleReceiver := func(rows *sql.Rows) bool {
		if rowReceived {
			panic(fmt.Sprintf("Received second row for %q", stmt))
		}
		receiver(rows)
		rowReceived = true
		return true
	}
	adb.ForEachRowOrPanic(singleReceiver, stmt, params...)
}

func (adb *ArchiveDB) ExecOrPanic(stmt string, params ...any) {
	if _, err := adb.DB.Exec(stmt, params...); err != nil {
		panic(err)
	}
}

func (adb *ArchiveDB) InsertOrUpdateBoard(name, link string, totalPages int, available bool) (id BoardID, err error) {
	adb.ForSingleRowOrPanic(
		func(rows *sql.Rows) bool {
			err = rows.Scan(&id)
			return true
		},
		adb.insertBoardStmt, name, link, totalPages, available)
	return
}

func (adb *ArchiveDB) getOrInsertAuthor(a model.Author) (id AuthorID, err error) {
	adb.ForSingleRowOrPanic(
		func(rows *sql.Rows) bool {
			err = rows.Scan(&id)
			return true
		},
		adb.insertAuthorStmt, a.Name, a.Profile)
	return
}

// InsertOrUpdateTopic records an archived topic. dir is the topic's archive
// directory, unique within the board.
func (adb *ArchiveDB) InsertOrUpdateTopic(boardId BoardID, dir, title string, startedBy model.Author, startedAt time.Time, totalPages int) (id TopicID, err error) {
	var authorId AuthorID
	if authorId, err = adb.getOrInsertAuthor(startedBy); err != nil {
		return
	}
	adb.ForSingleRowOrPanic(
		func(rows *sql.Rows) bool {
			err = rows.Scan(&id)
			return true
		},
		adb.insertTopicStmt, boardId, authorId, title, dir, unixOrNull(startedAt), totalPages)
	return
}

// AddPosts stores the posts of one 1-based topic page, replacing what was
// stored for the same positions.
func (adb *ArchiveDB) AddPosts(topicId TopicID, page int, posts []model.Post) error {
	for i, p := range posts {
		authorId, err := adb.getOrInsertAuthor(p.Author)
		if err != nil {
			return err
		}
		adb.ExecOrPanic(adb.insertPostStmt, topicId, authorId, page, i, unixOrNull(p.LastEdit), p.HTMLContent, p.RawContent)
	}
	return nil
}

// PostMatch is a stored post with enough context to locate it in the archive.
type PostMatch struct {
	Board    string
	Topic    string
	Dir      string
	Page     int
	Author   string
	LastEdit time.Time
	Content  string
}

// GrepPosts returns the posts whose raw content matches every expression,
// most recent first.
func (adb *ArchiveDB) GrepPosts(exprs ...string) (res []PostMatch) {
	stmt := `
		SELECT
			b.name, t.title, t.dir, p.page, a.name, p.last_edit, p.raw_content
		FROM board b, topic t, post p, author a
		WHERE
			    b.id = t.board_id
			AND t.id = p.topic_id
			AND a.id = p.author_id`

	params := make([]any, len(exprs))
	for i, e := range exprs {
		stmt += " AND p.raw_content REGEXP ?"
		params[i] = e
	}
	stmt += `
		ORDER BY p.last_edit DESC`

	adb.ForEachRowOrPanic(
		func(rows *sql.Rows) bool {
			var m PostMatch
			var lastEdit sql.NullInt64
			if err := rows.Scan(&m.Board, &m.Topic, &m.Dir, &m.Page, &m.Author, &lastEdit, &m.Content); err != nil {
				panic(err)
			}
			m.LastEdit = fromUnix(lastEdit)
			res = append(res, m)
			return true
		}, stmt, params...)
	return
}

// PostContents returns the raw content of every stored post, limited to one
// board unless board is empty.
func (adb *ArchiveDB) PostContents(board string) (res []string) {
	stmt := `
		SELECT p.raw_content
		FROM board b, topic t, post p
		WHERE
			    b.id = t.board_id
			AND t.id = p.topic_id
			AND (? = '' OR b.name = ?)
		ORDER BY p.id`

	adb.ForEachRowOrPanic(
		func(rows *sql.Rows) bool {
			var content string
			if err := rows.Scan(&content); err != nil {
				panic(err)
			}
			res = append(res, content)
			return true
		}, stmt, board, board)
	return
}

// Run is the report of one download session.
type Run struct {
	ID        RunID
	Started   time.Time
	Mode      string
	Check     time.Duration
	Download  *time.Duration
	Total     time.Duration
	Failures  int64
	Pages     int64
	Cancelled bool
}

func (adb *ArchiveDB) RecordRun(r Run) (id RunID, err error) {
	var download any
	if r.Download != nil {
		download = int64(*r.Download)
	}
	adb.ForSingleRowOrPanic(
		func(rows *sql.Rows) bool {
			err = rows.Scan(&id)
			return true
		},
		adb.insertRunStmt, r.Started.Unix(), r.Mode, int64(r.Check), download, int64(r.Total), r.Failures, r.Pages, r.Cancelled)
	return
}

// Runs returns the recorded sessions, oldest first.
func (adb *ArchiveDB) Runs() (res []Run) {
	stmt := `
		SELECT id, started, mode, check_ns, download_ns, total_ns, failures, pages, cancelled
		FROM run
		ORDER BY id`

	adb.ForEachRowOrPanic(
		func(rows *sql.Rows) bool {
			var r Run
			var started int64
			var check, total int64
			var download sql.NullInt64
			if err := rows.Scan(&r.ID, &started, &r.Mode, &check, &download, &total, &r.Failures, &r.Pages, &r.Cancelled); err != nil {
				panic(err)
			}
			r.Started = time.Unix(started, 0)
			r.Check = time.Duration(check)
			r.Total = time.Duration(total)
			if download.Valid {
				d := time.Duration(download.Int64)
				r.Download = &d
			}
			res = append(res, r)
			return true
		}, stmt)
	return
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func fromUnix(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}

func (adb *ArchiveDB) initTables() error {
	schema := `
CREATE TABLE board (
	id INTEGER NOT NULL PRIMARY KEY,
	name TEXT UNIQUE,
	link TEXT,
	total_pages INTEGER,
	available INTEGER
);

CREATE TABLE author (
	id INTEGER NOT NULL PRIMARY KEY,
	name TEXT UNIQUE,
	profile TEXT
);

CREATE TABLE topic (
	id INTEGER NOT NULL PRIMARY KEY,
	board_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	title TEXT,
	dir TEXT,
	started_at INTEGER,
	total_pages INTEGER,

	UNIQUE(board_id, dir)
);

CREATE TABLE post (
	id INTEGER NOT NULL PRIMARY KEY,
	topic_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	page INTEGER,
	position INTEGER,
	last_edit INTEGER,
	html_content TEXT,
	raw_content TEXT,

	UNIQUE(topic_id, page, position)
);

CREATE TABLE run (
	id INTEGER NOT NULL PRIMARY KEY,
	started INTEGER,
	mode TEXT,
	check_ns INTEGER,
	download_ns INTEGER,
	total_ns INTEGER,
	failures INTEGER,
	pages INTEGER,
	cancelled INTEGER
);
`
	if _, err := adb.DB.Exec(schema); err != nil {
		log.Printf("Error loading schema: %q\n", err)
		return err
	}
	return nil
}

func (adb *ArchiveDB) initSQLStatements() {
	adb.insertBoardStmt = `
		INSERT INTO board
			(name, link, total_pages, available)
		VALUES
			(?, ?, ?, ?)
		ON CONFLICT DO UPDATE SET
			link = excluded.link,
			total_pages = excluded.total_pages,
			available = excluded.available
		RETURNING id`

	adb.insertAuthorStmt = `
		INSERT INTO author
			(name, profile)
		VALUES
			(?, ?)
		ON CONFLICT DO UPDATE SET
			profile = excluded.profile
		RETURNING id`

	adb.insertTopicStmt = `
		INSERT INTO topic
			(board_id, author_id, title, dir, started_at, total_pages)
		VALUES
			(?, ?, ?, ?, ?, ?)
		ON CONFLICT DO UPDATE SET
			title = excluded.title,
			total_pages = excluded.total_pages
		RETURNING id`

	adb.insertPostStmt = `
		INSERT INTO post
			(topic_id, author_id, page, position, last_edit, html_content, raw_content)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO UPDATE SET
			author_id = excluded.author_id,
			last_edit = excluded.last_edit,
			html_content = excluded.html_content,
			raw_content = excluded.raw_content`

	adb.insertRunStmt = `
		INSERT INTO run
			(started, mode, check_ns, download_ns, total_ns, failures, pages, cancelled)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
}
