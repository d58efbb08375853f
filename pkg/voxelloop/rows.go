package voxelloop

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
)

// runRows walks the volume Z, Y, X and fits voxels in place. Rows without a
// masked voxel are skipped. With more than one worker the X positions of a
// row are split into contiguous chunks, each writing only its own voxels.
func (e *Executor) runRows(fit FitFunc, signal *models.Volume, mask *models.Mask, supplement *models.Volume, nParam, workers int, log logrus.FieldLogger) (*models.Volume, error) {
	p := models.NewVolume(signal.Nx, signal.Ny, signal.Nz, nParam)

	activeRows := 0
	for z := 0; z < signal.Nz; z++ {
		for y := 0; y < signal.Ny; y++ {
			active := mask.RowHasAny(y, z)
			if e.opts.Verbose && y%4 == 0 {
				marker := "."
				if active {
					marker = "o"
				}
				fmt.Fprint(e.status, marker)
			}
			if !active {
				continue
			}
			activeRows++

			var err error
			if workers == 1 {
				err = fitRange(fit, signal, mask, supplement, p, y, z, 0, signal.Nx, nParam)
			} else {
				err = fitRowParallel(fit, signal, mask, supplement, p, y, z, nParam, workers)
			}
			if err != nil {
				return nil, err
			}
		}
		if e.opts.Verbose {
			fmt.Fprintln(e.status)
		}
	}

	log.WithField("rows", activeRows).Debug("active rows fitted")
	return p, nil
}

func fitRowParallel(fit FitFunc, signal *models.Volume, mask *models.Mask, supplement, p *models.Volume, y, z, nParam, workers int) error {
	chunk := (signal.Nx + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for x0 := 0; x0 < signal.Nx; x0 += chunk {
		x0 := x0 // per-iteration copy (pre-Go 1.22 loop semantics)
		x1 := min(x0+chunk, signal.Nx)
		g.Go(func() error {
			return fitRange(fit, signal, mask, supplement, p, y, z, x0, x1, nParam)
		})
	}
	return g.Wait()
}

// fitRange fits voxels x0 <= x < x1 of row (y, z) into p.
func fitRange(fit FitFunc, signal *models.Volume, mask *models.Mask, supplement, p *models.Volume, y, z, x0, x1, nParam int) error {
	for x := x0; x < x1; x++ {
		i := signal.Index(x, y, z)
		if !mask.Included(i) || signal.IsZero(i) {
			continue
		}

		var supp []float64
		if supplement != nil {
			supp = slices.Clone(supplement.Signal(i))
		}
		out, err := invoke(fit, slices.Clone(signal.Signal(i)), supp, nParam)
		if err != nil {
			return fmt.Errorf("fit failed at voxel (%d, %d, %d): %w", x, y, z, err)
		}
		p.SetSignal(i, out)
	}
	return nil
}
