// Command pmctl is the terminal client for PMForge: it converses with the
// agent about one project and keeps the local document and roadmap views in
// sync with the server.
package main

import (
	"os"

	"github.com/Strob0t/PMForge/cmd/pmctl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
