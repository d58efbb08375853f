package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
)

// Viewer renders one parameter channel of a parameter-map volume as 2D
// grey-level slices.
type Viewer struct {
	volume *models.Volume
}

// NewViewer creates a viewer for a parameter-map volume
func NewViewer(volume *models.Volume) *Viewer {
	return &Viewer{volume: volume}
}

// Window returns the display range of a channel: its minimum and maximum
// over all voxels.
func (v *Viewer) Window(channel int) (lo, hi float64, err error) {
	if channel < 0 || channel >= v.volume.Nc {
		return 0, 0, fmt.Errorf("channel %d out of range [0, %d)", channel, v.volume.Nc)
	}
	values := make([]float64, v.volume.NumVoxels())
	for i := range values {
		values[i] = v.volume.Data[i*v.volume.Nc+channel]
	}
	return floats.Min(values), floats.Max(values), nil
}

// ExtractSlice extracts a 2D slice of one channel along the specified axis,
// scaled so the channel's window spans the full grey range.
func (v *Viewer) ExtractSlice(axis string, position, channel int) (*image.Gray16, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	lo, hi, err := v.Window(channel)
	if err != nil {
		return nil, err
	}

	vol := v.volume
	scale := func(value float64) color.Gray16 {
		if hi <= lo {
			return color.Gray16{}
		}
		t := (value - lo) / (hi - lo)
		return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, t*65535)))}
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= vol.Nx {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Nx)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Nz, vol.Ny))
		for y := 0; y < vol.Ny; y++ {
			for z := 0; z < vol.Nz; z++ {
				img.SetGray16(z, y, scale(vol.At(position, y, z, channel)))
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= vol.Ny {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Ny)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Nx, vol.Nz))
		for z := 0; z < vol.Nz; z++ {
			for x := 0; x < vol.Nx; x++ {
				img.SetGray16(x, z, scale(vol.At(x, position, z, channel)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= vol.Nz {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Nz)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Nx, vol.Ny))
		for y := 0; y < vol.Ny; y++ {
			for x := 0; x < vol.Nx; x++ {
				img.SetGray16(x, y, scale(vol.At(x, y, position, channel)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice of a channel along the
// specified axis
func (v *Viewer) SaveSliceSequence(axis string, channel int, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Nx
	case "y", "Y":
		maxPos = v.volume.Ny
	case "z", "Z":
		maxPos = v.volume.Nz
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos, channel)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("param%d_%s_%03d.jpg", channel, axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
