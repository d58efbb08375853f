package visualization

import (
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
)

// createTestVolume builds a two-channel volume: channel 0 encodes z,
// channel 1 is constant
func createTestVolume(width, height, depth int) *models.Volume {
	vol := models.NewVolume(width, height, depth, 2)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				vol.Set(x, y, z, 0, float64(z))
				vol.Set(x, y, z, 1, 3)
			}
		}
	}
	return vol
}

func TestWindow(t *testing.T) {
	viewer := NewViewer(createTestVolume(4, 3, 5))

	lo, hi, err := viewer.Window(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 4.0, hi)

	_, _, err = viewer.Window(2)
	assert.Error(t, err)
}

func TestExtractSlice(t *testing.T) {
	width, height, depth := 6, 4, 5
	viewer := NewViewer(createTestVolume(width, height, depth))

	t.Run("z", func(t *testing.T) {
		for z := 0; z < depth; z++ {
			img, err := viewer.ExtractSlice("z", z, 0)
			require.NoError(t, err)
			assert.Equal(t, width, img.Bounds().Dx())
			assert.Equal(t, height, img.Bounds().Dy())

			want := uint16(float64(z) / float64(depth-1) * 65535)
			assert.Equal(t, want, img.Gray16At(2, 1).Y, "slice %d", z)
		}
	})

	t.Run("x", func(t *testing.T) {
		img, err := viewer.ExtractSlice("x", 1, 0)
		require.NoError(t, err)
		assert.Equal(t, depth, img.Bounds().Dx())
		assert.Equal(t, height, img.Bounds().Dy())
		assert.Equal(t, uint16(0), img.Gray16At(0, 0).Y)
		assert.Equal(t, uint16(65535), img.Gray16At(depth-1, 0).Y)
	})

	t.Run("y", func(t *testing.T) {
		img, err := viewer.ExtractSlice("Y", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, width, img.Bounds().Dx())
		assert.Equal(t, depth, img.Bounds().Dy())
	})

	t.Run("flat channel", func(t *testing.T) {
		img, err := viewer.ExtractSlice("z", 0, 1)
		require.NoError(t, err)
		assert.Equal(t, uint16(0), img.Gray16At(0, 0).Y)
	})

	t.Run("errors", func(t *testing.T) {
		for _, tc := range []struct {
			axis     string
			position int
			channel  int
		}{
			{"z", -1, 0},
			{"z", depth, 0},
			{"x", width, 0},
			{"y", height, 0},
			{"w", 0, 0},
			{"z", 0, 5},
		} {
			_, err := viewer.ExtractSlice(tc.axis, tc.position, tc.channel)
			assert.Error(t, err, "%+v", tc)
		}
	})
}

func TestSaveSliceSequence(t *testing.T) {
	viewer := NewViewer(createTestVolume(5, 5, 3))
	dir := filepath.Join(t.TempDir(), "maps")

	require.NoError(t, viewer.SaveSliceSequence("z", 0, dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	f, err := os.Open(filepath.Join(dir, "param0_z_001.jpg"))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())

	assert.Error(t, viewer.SaveSliceSequence("q", 0, dir))
}
