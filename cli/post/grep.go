package post

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/bit101/go-ansi"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zvonler/talkarchive/configuration"
	"github.com/zvonler/talkarchive/database"
	"golang.org/x/term"
)

func initGrepCommand() *cobra.Command {
	grepCommand := &cobra.Command{
		Use:   "grep <regex>...",
		Short: "Locates posts matching one or more regular expression(s)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGrepCommand,
	}

	return grepCommand
}

func paginatePosts(posts []database.PostMatch) {
	cmd := exec.Command("/usr/bin/less", "-FRX")
	cmd.Stdout = os.Stdout

	if stdin, err := cmd.StdinPipe(); err == nil {
		go func() {
			defer stdin.Close()

			for _, p := range posts {
				ansi.Fprintf(stdin, ansi.Cyan, "%s / %s (page %d) ", p.Board, p.Topic, p.Page)
				ansi.Fprintf(stdin, ansi.Green, "%s\n", p.LastEdit)
				ansi.Fprintf(stdin, ansi.Red, "%s", p.Author)
				ansi.Fprintf(stdin, ansi.Default, ": ")
				ansi.Fprintf(stdin, ansi.Green, "\"")
				ansi.Fprintf(stdin, ansi.Default, "%s", p.Content)
				ansi.Fprintf(stdin, ansi.Green, "\"\n")
				ansi.Fprintln(stdin, ansi.Blue, "--------")
			}
		}()
	} else {
		log.Fatal(err)
	}

	err := cmd.Run()
	if err != nil {
		log.Fatal(err)
	}
}

func printPosts(w io.Writer, posts []database.PostMatch) {
	for _, p := range posts {
		fmt.Fprintf(w, "%s / %s (page %d) %s\n%s: %q\n", p.Board, p.Topic, p.Page, p.LastEdit, p.Author, p.Content)
		fmt.Fprintln(w, "--------")
	}
}

func runGrepCommand(cmd *cobra.Command, args []string) {
	adb, err := configuration.OpenExistingDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer adb.Close()

	posts := adb.GrepPosts(args...)

	isTty := term.IsTerminal(int(os.Stdout.Fd()))
	if isTty {
		paginatePosts(posts)
	} else {
		printPosts(os.Stdout, posts)
	}
}
