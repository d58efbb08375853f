package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeIndexing(t *testing.T) {
	v := NewVolume(3, 4, 2, 2)
	assert.Len(t, v.Data, 3*4*2*2)
	assert.Equal(t, 24, v.NumVoxels())

	// X varies fastest
	assert.Equal(t, 0, v.Index(0, 0, 0))
	assert.Equal(t, 1, v.Index(1, 0, 0))
	assert.Equal(t, 3, v.Index(0, 1, 0))
	assert.Equal(t, 12, v.Index(0, 0, 1))

	for i := 0; i < v.NumVoxels(); i++ {
		x, y, z := v.Coords(i)
		assert.Equal(t, i, v.Index(x, y, z))
	}

	v.Set(2, 3, 1, 1, 7.5)
	assert.Equal(t, 7.5, v.At(2, 3, 1, 1))
	assert.Equal(t, []float64{0, 7.5}, v.Signal(v.Index(2, 3, 1)))
	assert.False(t, v.IsZero(v.Index(2, 3, 1)))
	assert.True(t, v.IsZero(0))

	v.SetSignal(5, []float64{1, 2})
	assert.Equal(t, 1.0, v.At(2, 1, 0, 0))
	assert.Equal(t, 2.0, v.At(2, 1, 0, 1))
}

func TestVolumeEmpty(t *testing.T) {
	var nilVolume *Volume
	assert.True(t, nilVolume.Empty())
	assert.True(t, (&Volume{}).Empty())
	assert.True(t, NewVolume(2, 2, 0, 1).Empty())
	assert.True(t, NewVolume(2, 2, 2, 0).Empty())
	assert.False(t, NewVolume(1, 1, 1, 1).Empty())
}

func TestMask(t *testing.T) {
	m := NewMask(3, 2, 2)
	assert.Zero(t, m.Count())
	assert.False(t, m.RowHasAny(1, 1))

	m.Set(2, 1, 1, 1)
	assert.Equal(t, 1, m.Count())
	assert.True(t, m.RowHasAny(1, 1))
	assert.False(t, m.RowHasAny(0, 1))
	assert.True(t, m.Included(2+3*(1+2*1)))

	// Negative values are not truthy
	m.Set(0, 0, 0, -1)
	assert.False(t, m.Included(0))
	assert.False(t, m.RowHasAny(0, 0))

	assert.Equal(t, 12, m.Fill().Count())

	b := MaskFromBool([]bool{true, false, true, false}, 2, 2, 1)
	assert.Equal(t, []float64{1, 0, 1, 0}, b.Data)
	assert.Equal(t, 1.0, b.At(0, 1, 0))
}
