package phantom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphere(t *testing.T) {
	bValues := []float64{0, 1, 2}
	vol, mask := Sphere(12, bValues, 100, 0.5)

	require.Equal(t, 12*12*12*3, len(vol.Data))
	require.Equal(t, 12*12*12, len(mask.Data))

	signalVoxels, shellVoxels := 0, 0
	for i := 0; i < vol.NumVoxels(); i++ {
		if !vol.IsZero(i) {
			signalVoxels++
			assert.True(t, mask.Included(i), "voxel %d has signal outside the mask", i)
			// b=0 sample is S0
			assert.InDelta(t, 100.0, vol.Signal(i)[0], 1e-9)
		} else if mask.Included(i) {
			shellVoxels++
		}
	}
	assert.Positive(t, signalVoxels)
	assert.Positive(t, shellVoxels, "mask should include zero-signal voxels")

	// Diffusivity increases along X
	x, y, z := 6, 6, 6
	d0 := -math.Log(vol.At(x, y, z, 1) / vol.At(x, y, z, 0))
	d1 := -math.Log(vol.At(x+1, y, z, 1) / vol.At(x+1, y, z, 0))
	assert.Greater(t, d1, d0)
}

func TestWeights(t *testing.T) {
	vol, _ := Sphere(4, []float64{0, 1}, 1, 1)
	w := Weights(vol)
	assert.Equal(t, []int{4, 4, 4, 2}, []int{w.Nx, w.Ny, w.Nz, w.Nc})
	assert.Equal(t, []float64{1, 0.5}, w.Signal(17))
}
