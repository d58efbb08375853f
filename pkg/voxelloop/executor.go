// Package voxelloop applies a per-voxel fit function over a masked 4D volume
// and assembles the results into a parameter-map volume on the same grid.
//
// Two execution strategies are provided. The batched strategy flattens the
// volume, gathers the included voxels into a dense working set and hands one
// contiguous block to each worker. The row strategy walks the volume Z, Y, X
// and spreads the X positions of each active row over the workers. Both
// produce identical parameter maps for the same inputs.
package voxelloop

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
)

// FitFunc maps the signal vector of one voxel to its parameter vector.
// supplement is the co-registered auxiliary vector of the same voxel, or nil
// when no supplement volume is in use. The returned vector must have the same
// length for every voxel of a call.
type FitFunc func(signal, supplement []float64) ([]float64, error)

// SignalOnly adapts a single-argument model to a FitFunc.
func SignalOnly(f func(signal []float64) ([]float64, error)) FitFunc {
	return func(signal, _ []float64) ([]float64, error) {
		return f(signal)
	}
}

// Options selects how the voxel loop is executed.
type Options struct {
	// NoParfor forces single-threaded execution
	NoParfor bool `yaml:"no_parfor"`

	// Verbose enables progress output on the status stream
	Verbose bool `yaml:"verbose"`

	// DoNewParfor selects the batched strategy instead of the row strategy
	DoNewParfor bool `yaml:"do_new_parfor"`
}

// Params holds the executor's collaborators and options.
type Params struct {
	// Pool reports the number of available workers. A nil pool means
	// sequential execution.
	Pool Pool

	Options Options

	// Logger receives structured log lines. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger

	// Status receives progress markers when Options.Verbose is set.
	// Defaults to os.Stdout.
	Status io.Writer
}

// Executor runs fit functions over masked volumes.
type Executor struct {
	pool   Pool
	opts   Options
	log    logrus.FieldLogger
	status io.Writer
}

// NewExecutor creates an executor from params. A nil params value gives a
// sequential executor with default logging.
func NewExecutor(params *Params) *Executor {
	e := &Executor{
		log:    logrus.StandardLogger(),
		status: os.Stdout,
	}
	if params == nil {
		return e
	}
	e.pool = params.Pool
	e.opts = params.Options
	if params.Logger != nil {
		e.log = params.Logger
	}
	if params.Status != nil {
		e.status = params.Status
	}
	return e
}

// Workers returns the worker count the next Run will use. Pool failures are
// not errors: they degrade to a single worker.
func (e *Executor) Workers() int {
	if e.opts.NoParfor {
		return 1
	}
	if e.pool == nil {
		e.log.Debug("no worker pool configured, running sequentially")
		return 1
	}
	n, err := e.pool.Workers()
	if err != nil {
		e.log.WithError(err).Debug("worker pool unavailable, running sequentially")
		return 1
	}
	if n < 1 {
		return 1
	}
	return n
}

// Run applies fit to every voxel selected by mask whose signal is not
// identically zero, and returns a volume with the spatial extents of signal
// and one channel per fit parameter. All other voxels are left at zero.
//
// supplement may be nil. When present it must lie on the same grid as signal
// and its per-voxel vectors are passed as the second fit argument by the row
// strategy. The batched strategy passes nil.
func (e *Executor) Run(fit FitFunc, signal *models.Volume, mask *models.Mask, supplement *models.Volume) (*models.Volume, error) {
	if err := validate(fit, signal, mask, supplement); err != nil {
		return nil, err
	}

	workers := e.Workers()

	nParam, err := probe(fit, signal, supplement)
	if err != nil {
		return nil, err
	}

	strategy := "rows"
	if e.opts.DoNewParfor {
		strategy = "batched"
	}
	log := e.log.WithFields(logrus.Fields{
		"strategy": strategy,
		"workers":  workers,
		"n_param":  nParam,
	})
	log.Debugf("voxel loop over %dx%dx%d volume with %d channels", signal.Nx, signal.Ny, signal.Nz, signal.Nc)

	startTime := time.Now()
	var p *models.Volume
	if e.opts.DoNewParfor {
		if supplement != nil {
			log.Warn("batched strategy does not pass the supplement volume to the fit function")
		}
		p, err = e.runBatched(fit, signal, mask, nParam, workers, log)
	} else {
		p, err = e.runRows(fit, signal, mask, supplement, nParam, workers, log)
	}
	if err != nil {
		return nil, err
	}

	log.WithField("elapsed", time.Since(startTime)).Info("voxel loop finished")
	return p, nil
}

func validate(fit FitFunc, signal *models.Volume, mask *models.Mask, supplement *models.Volume) error {
	switch {
	case fit == nil:
		return fmt.Errorf("%w: fit function is required", ErrMissingArgument)
	case signal.Empty():
		return fmt.Errorf("%w: signal volume is required", ErrMissingArgument)
	case mask == nil:
		return fmt.Errorf("%w: mask is required", ErrMissingArgument)
	}

	if mask.Nx != signal.Nx || mask.Ny != signal.Ny || mask.Nz != signal.Nz || len(mask.Data) != signal.NumVoxels() {
		return fmt.Errorf("%w: mask is %dx%dx%d, signal is %dx%dx%d",
			ErrShapeMismatch, mask.Nx, mask.Ny, mask.Nz, signal.Nx, signal.Ny, signal.Nz)
	}
	if len(signal.Data) != signal.NumVoxels()*signal.Nc {
		return fmt.Errorf("%w: signal holds %d samples, want %d",
			ErrShapeMismatch, len(signal.Data), signal.NumVoxels()*signal.Nc)
	}

	if supplement == nil {
		return nil
	}
	if supplement.Empty() {
		return fmt.Errorf("%w: supplement volume is empty", ErrInvalidArgument)
	}
	if !supplement.SameGrid(signal.Nx, signal.Ny, signal.Nz) || len(supplement.Data) != supplement.NumVoxels()*supplement.Nc {
		return fmt.Errorf("%w: supplement is %dx%dx%d, signal is %dx%dx%d",
			ErrShapeMismatch, supplement.Nx, supplement.Ny, supplement.Nz, signal.Nx, signal.Ny, signal.Nz)
	}
	return nil
}

// centre returns the 0-based index nearest the middle of an axis of length n,
// taking round(n/2) as a 1-based position.
func centre(n int) int {
	return max(int(math.Round(float64(n)/2))-1, 0)
}

// probe calls fit once on the centre voxel to learn the parameter count.
// The centre voxel is used whether or not it is masked or zero.
func probe(fit FitFunc, signal, supplement *models.Volume) (int, error) {
	i := signal.Index(centre(signal.Nx), centre(signal.Ny), centre(signal.Nz))

	var supp []float64
	if supplement != nil {
		supp = slices.Clone(supplement.Signal(i))
	}
	out, err := fit(slices.Clone(signal.Signal(i)), supp)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: fit function returned no parameters", ErrProbeFailed)
	}
	return len(out), nil
}

// invoke calls fit and checks the result against the probed parameter count.
func invoke(fit FitFunc, signal, supplement []float64, nParam int) ([]float64, error) {
	out, err := fit(signal, supplement)
	if err != nil {
		return nil, err
	}
	if len(out) != nParam {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrParamCount, len(out), nParam)
	}
	return out, nil
}
