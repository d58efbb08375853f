package voxelloop

import "errors"

var (
	// ErrMissingArgument is returned when the fit function, the signal
	// volume or the mask is absent.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidArgument is returned when a supplement volume is given but empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrShapeMismatch is returned when the mask or supplement does not share
	// the signal volume's spatial extents.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrProbeFailed is returned when the centre-voxel probe cannot determine
	// the number of fit parameters.
	ErrProbeFailed = errors.New("parameter probe failed")

	// ErrParamCount is returned when the fit function returns a vector whose
	// length differs from the probed parameter count.
	ErrParamCount = errors.New("inconsistent parameter count")
)
