package voxelloop

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
)

// runBatched fits the included voxels in contiguous blocks, one per worker.
//
// The included voxels are gathered in voxel order into a dense working set
// (one row per voxel). Block w covers rows [w*size, (w+1)*size) with
// size = ceil(count/workers). Each worker fills its own output block, and the
// blocks are joined in worker order before being scattered back to their
// voxel indices.
func (e *Executor) runBatched(fit FitFunc, signal *models.Volume, mask *models.Mask, nParam, workers int, log logrus.FieldLogger) (*models.Volume, error) {
	p := models.NewVolume(signal.Nx, signal.Ny, signal.Nz, nParam)

	included := make([]int, 0, mask.Count())
	for i := 0; i < signal.NumVoxels(); i++ {
		if mask.Included(i) && !signal.IsZero(i) {
			included = append(included, i)
		}
	}
	count := len(included)

	log.WithField("voxels", count).Infof("fitting %s of %s voxels",
		humanize.Comma(int64(count)), humanize.Comma(int64(signal.NumVoxels())))
	if count == 0 {
		return p, nil
	}

	work := mat.NewDense(count, signal.Nc, nil)
	for k, i := range included {
		work.SetRow(k, signal.Signal(i))
	}

	blockSize := (count + workers - 1) / workers
	blocks := make([]*mat.Dense, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w // per-iteration copy (pre-Go 1.22 loop semantics)
		start := w * blockSize
		end := min(start+blockSize, count)

		// Trailing workers get nothing when count < workers
		if start >= end {
			continue
		}

		g.Go(func() error {
			block := mat.NewDense(end-start, nParam, nil)
			for r := start; r < end; r++ {
				out, err := invoke(fit, mat.Row(nil, r, work), nil, nParam)
				if err != nil {
					x, y, z := signal.Coords(included[r])
					return fmt.Errorf("fit failed at voxel (%d, %d, %d): %w", x, y, z, err)
				}
				block.SetRow(r-start, out)
			}
			blocks[w] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	k := 0
	for _, block := range blocks {
		if block == nil {
			continue
		}
		rows, _ := block.Dims()
		for r := 0; r < rows; r++ {
			p.SetSignal(included[k], block.RawRowView(r))
			k++
		}
	}

	return p, nil
}
