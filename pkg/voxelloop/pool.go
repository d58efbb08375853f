package voxelloop

import (
	"fmt"
	"runtime"
)

// Pool reports how many workers are available for parallel dispatch.
// The executor never creates or resizes the pool; it only asks for its size.
type Pool interface {
	Workers() (int, error)
}

// FixedPool is a pool of a fixed number of workers.
type FixedPool int

// Workers implements Pool.
func (p FixedPool) Workers() (int, error) {
	if p < 1 {
		return 0, fmt.Errorf("pool has no workers (size %d)", int(p))
	}
	return int(p), nil
}

// CPUPool returns a pool sized to the number of logical CPUs.
func CPUPool() Pool {
	return FixedPool(runtime.NumCPU())
}
