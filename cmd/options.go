package cmd

import (
	"github.com/achilleasa/bhtree/bvh"
	"github.com/urfave/cli"
)

// Flags controlling the construction of the bounding hierarchy.
var TreeFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "insert-capacity",
		Value: 50,
		Usage: "initial parent capacity of the insertion batch",
	},
	cli.IntFlag{
		Name:  "split-steps",
		Value: 16,
		Usage: "number of split points evaluated per axis",
	},
	cli.BoolFlag{
		Name:  "median",
		Usage: "always split at the median instead of using the surface area heuristic",
	},
	cli.Float64Flag{
		Name:  "rebuild-depth-factor",
		Value: 4,
		Usage: "rebuild the hierarchy when its depth exceeds this multiple of log2(objects); 0 disables",
	},
	cli.BoolFlag{
		Name:  "strict",
		Usage: "validate the hierarchy after every update",
	},
}

func treeOptions(ctx *cli.Context) bvh.Options {
	opts := bvh.DefaultOptions()
	if ctx.IsSet("insert-capacity") {
		opts.InsertCapacityHint = ctx.Int("insert-capacity")
	}
	if ctx.IsSet("split-steps") {
		opts.SplitSteps = ctx.Int("split-steps")
	}
	if ctx.IsSet("rebuild-depth-factor") {
		opts.RebuildDepthFactor = ctx.Float64("rebuild-depth-factor")
	}
	if ctx.Bool("median") {
		opts.ScoreStrategy = nil
	}
	opts.Strict = ctx.Bool("strict")
	return opts
}

func withTreeFlags(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, TreeFlags...), flags...)
}

// Flags for the stats command.
var StatsFlags = withTreeFlags(
	cli.BoolFlag{
		Name:  "rebuild",
		Usage: "also report statistics after rebuilding the hierarchy from scratch",
	},
)

// Flags for the cull command.
var CullFlags = withTreeFlags(
	cli.Float64Flag{
		Name:  "fov",
		Usage: "override the camera vertical field of view (degrees)",
	},
	cli.Float64Flag{
		Name:  "yaw",
		Usage: "turn the camera around its up axis (degrees)",
	},
	cli.Float64Flag{
		Name:  "pitch",
		Usage: "tilt the camera up or down (degrees)",
	},
)

// Flags for the churn command.
var ChurnFlags = withTreeFlags(
	cli.IntFlag{
		Name:  "objects",
		Value: 1000,
		Usage: "number of objects in the initial population",
	},
	cli.IntFlag{
		Name:  "batches",
		Value: 10,
		Usage: "number of update batches",
	},
	cli.IntFlag{
		Name:  "batch-size",
		Value: 100,
		Usage: "objects replaced per batch",
	},
	cli.IntFlag{
		Name:  "moves",
		Value: 50,
		Usage: "objects moved per batch",
	},
	cli.Float64Flag{
		Name:  "extent",
		Value: 100,
		Usage: "side length of the cube objects are scattered in",
	},
	cli.Int64Flag{
		Name:  "seed, s",
		Value: 1,
		Usage: "random seed",
	},
)
