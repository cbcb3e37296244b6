package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
)

const APP_NAME = "difubot"

// BuildArgs contains build-time information injected via ldflags.
type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var versionCmdStr string

func GetApp(bArgs BuildArgs) *cli.App {
	commands := []cli.Command{
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "prints installed version",
			Action: func(*cli.Context) error {
				fmt.Println(versionCmdStr)
				return nil
			},
		},
	}

	return &cli.App{
		Name:                   APP_NAME,
		HelpName:               APP_NAME,
		Usage:                  "WhatsApp broadcast bot with an HTTP API.",
		Version:                fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:              "difubot [command]",
		Commands:               commands,
		Action:                 run(),
		UseShortOptionHandling: true,
		HideVersion:            true,
	}
}

func Execute(args []string, bArgs BuildArgs) error {
	app := GetApp(bArgs)

	versionCmdStr = fmt.Sprintf("%s %s (%s_%s)\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
	if bArgs.Commit != "" && bArgs.Date != "" {
		versionCmdStr += fmt.Sprintf("Build: %s=%s\n", bArgs.Date, bArgs.Commit)
	}

	return app.Run(args)
}
