package cmd

import (
	"errors"
	"fmt"

	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/scene"
	"github.com/achilleasa/bhtree/types"
	"github.com/chewxy/math32"
	"github.com/urfave/cli"
)

func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	logger.Infof("reading scene: %s", ctx.Args().First())
	return scene.ReadScene(ctx.Args().First(), treeOptions(ctx))
}

func rootHull(tree *bvh.Tree) types.BBox {
	root := tree.Root()
	if root == nil || root.Hull() == nil {
		return types.EmptyBBox()
	}
	return *root.Hull()
}

// Display hierarchy statistics for a scene.
func ShowSceneStats(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	tree := sc.Tree()
	logger.Noticef("hierarchy statistics\n%s", treeStatsTable(tree.Stats(), rootHull(tree)))

	if ctx.Bool("rebuild") {
		if err = tree.Rebuild(); err != nil {
			return err
		}
		logger.Noticef("hierarchy statistics after full rebuild\n%s", treeStatsTable(tree.Stats(), rootHull(tree)))
	}

	return nil
}

// List the scene objects visible from the scene camera.
func CullScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	if sc.Camera == nil {
		return scene.ErrNoCamera
	}

	if ctx.IsSet("fov") {
		sc.Camera.FOV = float32(ctx.Float64("fov"))
	}
	sc.Camera.Yaw = float32(ctx.Float64("yaw")) * math32.Pi / 180
	sc.Camera.Pitch = float32(ctx.Float64("pitch")) * math32.Pi / 180
	sc.Camera.Update()

	visible, err := sc.Cull()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(visible))
	for _, obj := range visible {
		bounds := obj.Bounds()
		rows = append(rows, []string{obj.ID, fmtVec(bounds.Min), fmtVec(bounds.Max)})
	}
	footer := []string{"", "VISIBLE", fmt.Sprintf("%d / %d", len(visible), sc.Len())}

	logger.Noticef("visible objects\n%s", renderTable([]string{"Object", "Min", "Max"}, rows, footer))
	return nil
}
