package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/bhtree/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "bhtree"
	app.Usage = "build and query bounding volume hierarchies over scene objects"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "stats",
			Usage: "display hierarchy statistics for a scene",
			Description: `
Read a YAML scene description, build a bounding hierarchy over its objects and
display node counts and depth statistics.`,
			ArgsUsage: "scene.yaml",
			Flags:     cmd.StatsFlags,
			Action:    cmd.ShowSceneStats,
		},
		{
			Name:  "cull",
			Usage: "list the scene objects visible from the scene camera",
			Description: `
Read a YAML scene description and test its bounding hierarchy against the
view frustum of the scene camera. The camera can be turned before culling
using the yaw and pitch flags.`,
			ArgsUsage: "scene.yaml",
			Flags:     cmd.CullFlags,
			Action:    cmd.CullScene,
		},
		{
			Name:  "churn",
			Usage: "benchmark incremental hierarchy maintenance",
			Description: `
Populate a synthetic scene with randomly placed objects and then run batches
of random removals, insertions and moves, reporting update and hierarchy
statistics after every batch.`,
			Flags:  cmd.ChurnFlags,
			Action: cmd.Churn,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
