// Command mbl manages embedded Linux devices over SSH.
package main

import (
	"os"

	"github.com/ruffel/mbl/cmd/mbl/app"
)

// Version information set by build-time LDFLAGS.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	app.SetVersionInfo(Version, BuildTime)

	os.Exit(app.Main())
}
