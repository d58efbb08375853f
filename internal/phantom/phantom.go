// Package phantom generates synthetic diffusion-weighted volumes.
package phantom

import (
	"math"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
)

// Sphere builds a cube of side n holding a mono-exponential decay
// S0 * exp(-b * D) inside a sphere of radius n/3. D grows linearly along X
// so that parameter maps are not flat. The returned mask selects a slightly
// larger sphere, which includes a shell of zero-signal voxels.
func Sphere(n int, bValues []float64, s0, d float64) (*models.Volume, *models.Mask) {
	vol := models.NewVolume(n, n, n, len(bValues))
	mask := models.NewMask(n, n, n)

	radius := float64(n) / 3
	center := float64(n-1) / 2

	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx := float64(x) - center
				dy := float64(y) - center
				dz := float64(z) - center
				dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

				if dist <= radius+1 {
					mask.Set(x, y, z, 1)
				}
				if dist > radius {
					continue
				}

				diffusivity := d * (1 + float64(x)/float64(n))
				for c, b := range bValues {
					vol.Set(x, y, z, c, s0*math.Exp(-b*diffusivity))
				}
			}
		}
	}

	return vol, mask
}

// Weights builds a supplement volume on the grid of vol with one weight per
// channel, decreasing with channel index.
func Weights(vol *models.Volume) *models.Volume {
	w := models.NewVolume(vol.Nx, vol.Ny, vol.Nz, vol.Nc)
	for i := 0; i < w.NumVoxels(); i++ {
		for c := 0; c < w.Nc; c++ {
			w.Data[i*w.Nc+c] = 1 / float64(c+1)
		}
	}
	return w
}
