package main

import (
	"os"

	"github.com/jcarloshn/difubot/cmd"
	"github.com/jcarloshn/difubot/internal/logger"
)

// Injected via ldflags at build time.
var (
	version   = "dev"
	buildType = "snapshot"
	date      = ""
	commit    = ""
)

func main() {
	err := cmd.Execute(os.Args, cmd.BuildArgs{
		Version:   version,
		BuildType: buildType,
		Date:      date,
		Commit:    commit,
	})
	if err != nil {
		logger.Fatalf("%v", err)
	}
}
