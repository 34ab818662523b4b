package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/zvonler/talkarchive/cli"
)

func main() {
	talkarchiveCmd := cli.NewCommand()
	if err := talkarchiveCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
