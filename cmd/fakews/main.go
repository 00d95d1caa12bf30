// fakews CLI - scripted fake WebSocket endpoints for testing clients
package main

import (
	"os"

	"github.com/getmockd/fakews/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	os.Exit(cli.Main())
}
