package archive

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/zvonler/talkarchive/utils"
)

const pageExt = ".html"

// Board names are used as directory names verbatim except for the path
// separator and the escape character itself.
var (
	boardEscaper   = strings.NewReplacer("%", "%25", "/", "%2F")
	boardUnescaper = strings.NewReplacer("%2F", "/", "%25", "%")
)

// Repository is the on-disk archive. Boards are directories under the root,
// each holding its first listing page and one directory per topic; a topic
// directory holds the topic's pages as <n>.html with n starting at 1.
type Repository struct {
	root string
}

func NewRepository(root string) *Repository {
	return &Repository{root: root}
}

func (r *Repository) Root() string {
	return r.root
}

// TopicDir names the directory of the topic with the given title.
func TopicDir(title string) string {
	return utils.TitleHash(title)
}

func (r *Repository) boardPath(board string) string {
	return filepath.Join(r.root, boardEscaper.Replace(board))
}

func (r *Repository) topicPath(board, topicDir string) string {
	return filepath.Join(r.boardPath(board), topicDir)
}

// PagePath returns the file of the 1-based page n of a topic.
func (r *Repository) PagePath(board, topicDir string, n int) string {
	return filepath.Join(r.topicPath(board, topicDir), strconv.Itoa(n)+pageExt)
}

func (r *Repository) BoardPagePath(board string) string {
	return filepath.Join(r.boardPath(board), boardEscaper.Replace(board)+pageExt)
}

func (r *Repository) EnsureRoot() error {
	return os.MkdirAll(r.root, 0755)
}

func (r *Repository) EnsureBoard(board string) error {
	return os.MkdirAll(r.boardPath(board), 0755)
}

func (r *Repository) EnsureTopic(board, topicDir string) error {
	return os.MkdirAll(r.topicPath(board, topicDir), 0755)
}

// BoardNames returns the names of the archived boards in directory order. A
// missing root holds no boards.
func (r *Repository) BoardNames() ([]string, error) {
	dirs, err := subdirs(r.root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		names = append(names, boardUnescaper.Replace(dir))
	}
	return names, nil
}

func (r *Repository) TopicDirs(board string) ([]string, error) {
	return subdirs(r.boardPath(board))
}

// PageFiles returns the sorted page numbers present in a topic directory.
func (r *Repository) PageFiles(board, topicDir string) ([]int, error) {
	entries, err := os.ReadDir(r.topicPath(board, topicDir))
	if err != nil {
		return nil, err
	}
	pages := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), pageExt) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(e.Name(), pageExt))
		if err != nil || n < 1 {
			continue
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}

func (r *Repository) PageExists(board, topicDir string, n int) bool {
	exists, err := utils.PathExists(r.PagePath(board, topicDir, n))
	return err == nil && exists
}

func (r *Repository) ReadBoardPage(board string) (string, error) {
	return readFile(r.BoardPagePath(board))
}

func (r *Repository) WriteBoardPage(board, content string) error {
	return writeFileAtomic(r.BoardPagePath(board), content)
}

func (r *Repository) ReadPage(board, topicDir string, n int) (string, error) {
	return readFile(r.PagePath(board, topicDir, n))
}

func (r *Repository) WritePage(board, topicDir string, n int, content string) error {
	return writeFileAtomic(r.PagePath(board, topicDir, n), content)
}

func (r *Repository) rootPagePath(name string) string {
	return filepath.Join(r.root, boardEscaper.Replace(name)+pageExt)
}

// WriteRoot saves the board index page next to the board directories.
func (r *Repository) WriteRoot(name, content string) error {
	if err := r.EnsureRoot(); err != nil {
		return err
	}
	return writeFileAtomic(r.rootPagePath(name), content)
}

func (r *Repository) ReadRoot(name string) (string, error) {
	return readFile(r.rootPagePath(name))
}

// HasBoard reports whether the board has a directory in the archive.
func (r *Repository) HasBoard(board string) bool {
	exists, err := utils.PathExists(r.boardPath(board))
	return err == nil && exists
}

func subdirs(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

// writeFileAtomic replaces path so that readers never observe a partial page.
func writeFileAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
