package cmd

import (
	"fmt"
	"math/rand"

	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/scene"
	"github.com/achilleasa/bhtree/types"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

type churnParams struct {
	objects   int
	batches   int
	batchSize int
	moves     int
	extent    float32
	seed      int64
}

type batchResult struct {
	update bvh.UpdateStats
	tree   bvh.Stats
}

// The churn workload replaces batchSize random objects and moves another
// moves objects per batch, syncing the scene after each batch.
type churn struct {
	params churnParams
	rng    *rand.Rand
	sc     *scene.Scene

	ids    []string
	nextID int
}

func newChurn(params churnParams, opts bvh.Options) *churn {
	return &churn{
		params: params,
		rng:    rand.New(rand.NewSource(params.seed)),
		sc:     scene.New(opts),
	}
}

func (c *churn) randomBounds() types.BBox {
	ext := c.params.extent
	lo := types.XYZ(
		(c.rng.Float32()-0.5)*ext,
		(c.rng.Float32()-0.5)*ext,
		(c.rng.Float32()-0.5)*ext,
	)
	size := ext / 100
	return types.NewBBox(lo, lo.Add(types.XYZ(
		size*(0.1+c.rng.Float32()),
		size*(0.1+c.rng.Float32()),
		size*(0.1+c.rng.Float32()),
	)))
}

func (c *churn) spawn(count int) []*scene.Object {
	objects := make([]*scene.Object, count)
	for i := range objects {
		id := fmt.Sprintf("obj-%06d", c.nextID)
		c.nextID++
		objects[i] = scene.NewObject(id, c.randomBounds())
		c.ids = append(c.ids, id)
	}
	return objects
}

// Remove count random ids from the live id list and return them.
func (c *churn) pick(count int) []string {
	if count > len(c.ids) {
		count = len(c.ids)
	}
	picked := make([]string, count)
	for i := range picked {
		index := c.rng.Intn(len(c.ids))
		picked[i] = c.ids[index]
		last := len(c.ids) - 1
		c.ids[index] = c.ids[last]
		c.ids = c.ids[:last]
	}
	return picked
}

func (c *churn) populate() (batchResult, error) {
	if err := c.sc.Attach(c.spawn(c.params.objects)...); err != nil {
		return batchResult{}, err
	}
	return c.sync()
}

func (c *churn) step() (batchResult, error) {
	if err := c.sc.Detach(c.pick(c.params.batchSize)...); err != nil {
		return batchResult{}, err
	}

	moveCount := c.params.moves
	if moveCount > len(c.ids) {
		moveCount = len(c.ids)
	}
	for i := 0; i < moveCount; i++ {
		id := c.ids[c.rng.Intn(len(c.ids))]
		if err := c.sc.Move(id, c.randomBounds()); err != nil {
			return batchResult{}, err
		}
	}

	if err := c.sc.Attach(c.spawn(c.params.batchSize)...); err != nil {
		return batchResult{}, err
	}
	return c.sync()
}

func (c *churn) sync() (batchResult, error) {
	update, err := c.sc.Sync()
	if err != nil {
		return batchResult{}, err
	}
	return batchResult{update: update, tree: c.sc.Tree().Stats()}, nil
}

func (c *churn) run() ([]batchResult, error) {
	results := make([]batchResult, 0, c.params.batches+1)
	res, err := c.populate()
	if err != nil {
		return nil, errors.Wrap(err, "churn: initial population failed")
	}
	results = append(results, res)

	for batch := 1; batch <= c.params.batches; batch++ {
		if res, err = c.step(); err != nil {
			return nil, errors.Wrapf(err, "churn: batch %d failed", batch)
		}
		results = append(results, res)
	}
	return results, nil
}

// Run random insert, remove and move batches against a synthetic scene and
// report hierarchy statistics after every batch.
func Churn(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	params := churnParams{
		objects:   ctx.Int("objects"),
		batches:   ctx.Int("batches"),
		batchSize: ctx.Int("batch-size"),
		moves:     ctx.Int("moves"),
		extent:    float32(ctx.Float64("extent")),
		seed:      ctx.Int64("seed"),
	}
	if params.objects < 0 || params.batches < 0 || params.batchSize < 0 || params.moves < 0 {
		return errors.New("object and batch counts must not be negative")
	}
	if params.extent <= 0 {
		return errors.New("extent must be positive")
	}

	results, err := newChurn(params, treeOptions(ctx)).run()
	if err != nil {
		return err
	}

	logger.Noticef("churn statistics (seed %d)\n%s", params.seed, churnTable(results))
	return nil
}

func churnTable(results []batchResult) string {
	rows := make([][]string, 0, len(results))
	for batch, res := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", batch),
			fmt.Sprintf("%d", res.update.Inserted),
			fmt.Sprintf("%d", res.update.Removed),
			fmt.Sprintf("%d", res.update.Refitted),
			fmt.Sprintf("%d", res.update.Parents),
			fmt.Sprintf("%t", res.update.Rebuilt),
			fmt.Sprintf("%d", res.tree.Leaves),
			fmt.Sprintf("%d", res.tree.Internals),
			fmt.Sprintf("%d", res.tree.MaxDepth),
			fmt.Sprintf("%.2f", res.tree.AverageLeafDepth),
			res.update.Duration.String(),
		})
	}
	return renderTable(
		[]string{"Batch", "Inserted", "Removed", "Refitted", "Parents", "Rebuilt", "Leaves", "Internals", "Max depth", "Avg depth", "Update time"},
		rows,
		nil,
	)
}
