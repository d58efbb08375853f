package models

import (
	"gonum.org/v1/gonum/floats"
)

// Volume is a 4D array of samples with three spatial axes and one channel axis.
//
// Voxels are ordered column-major over space (X varies fastest), so the voxel
// at (x, y, z) has linear index x + Nx*(y + Ny*z). The channel vector of a
// voxel is stored contiguously.
type Volume struct {
	// Data holds Nx*Ny*Nz*Nc samples, voxel-major
	Data []float64

	// Nx, Ny, Nz are the spatial extents
	Nx, Ny, Nz int

	// Nc is the per-voxel channel length
	Nc int
}

// NewVolume allocates a zero-filled volume.
func NewVolume(nx, ny, nz, nc int) *Volume {
	return &Volume{
		Data: make([]float64, nx*ny*nz*nc),
		Nx:   nx,
		Ny:   ny,
		Nz:   nz,
		Nc:   nc,
	}
}

// NumVoxels returns the number of spatial positions.
func (v *Volume) NumVoxels() int {
	return v.Nx * v.Ny * v.Nz
}

// Empty reports whether the volume holds no samples.
func (v *Volume) Empty() bool {
	return v == nil || v.NumVoxels() == 0 || v.Nc == 0 || len(v.Data) == 0
}

// Index returns the linear voxel index of (x, y, z).
func (v *Volume) Index(x, y, z int) int {
	return x + v.Nx*(y+v.Ny*z)
}

// Coords is the inverse of Index.
func (v *Volume) Coords(i int) (x, y, z int) {
	x = i % v.Nx
	y = (i / v.Nx) % v.Ny
	z = i / (v.Nx * v.Ny)
	return x, y, z
}

// At returns the sample at (x, y, z, c).
func (v *Volume) At(x, y, z, c int) float64 {
	return v.Data[v.Index(x, y, z)*v.Nc+c]
}

// Set stores a sample at (x, y, z, c).
func (v *Volume) Set(x, y, z, c int, value float64) {
	v.Data[v.Index(x, y, z)*v.Nc+c] = value
}

// Signal returns the channel vector of voxel i. The returned slice aliases
// the volume's storage.
func (v *Volume) Signal(i int) []float64 {
	return v.Data[i*v.Nc : (i+1)*v.Nc]
}

// SetSignal copies values into the channel vector of voxel i.
func (v *Volume) SetSignal(i int, values []float64) {
	copy(v.Data[i*v.Nc:(i+1)*v.Nc], values)
}

// IsZero reports whether every channel of voxel i is exactly zero.
func (v *Volume) IsZero(i int) bool {
	return floats.Count(func(s float64) bool { return s != 0 }, v.Signal(i)) == 0
}

// SameGrid reports whether both volumes share the same spatial extents.
func (v *Volume) SameGrid(nx, ny, nz int) bool {
	return v.Nx == nx && v.Ny == ny && v.Nz == nz
}

// Mask selects voxels of a volume. An element is included when it is > 0.
type Mask struct {
	Data []float64

	Nx, Ny, Nz int
}

// NewMask allocates a mask with no voxel selected.
func NewMask(nx, ny, nz int) *Mask {
	return &Mask{
		Data: make([]float64, nx*ny*nz),
		Nx:   nx,
		Ny:   ny,
		Nz:   nz,
	}
}

// MaskFromBool builds a mask from a boolean slice in voxel order.
func MaskFromBool(values []bool, nx, ny, nz int) *Mask {
	m := NewMask(nx, ny, nz)
	for i, b := range values {
		if b {
			m.Data[i] = 1
		}
	}
	return m
}

// Fill selects every voxel.
func (m *Mask) Fill() *Mask {
	for i := range m.Data {
		m.Data[i] = 1
	}
	return m
}

// At returns the mask value at (x, y, z).
func (m *Mask) At(x, y, z int) float64 {
	return m.Data[x+m.Nx*(y+m.Ny*z)]
}

// Set stores a mask value at (x, y, z).
func (m *Mask) Set(x, y, z int, value float64) {
	m.Data[x+m.Nx*(y+m.Ny*z)] = value
}

// Included reports whether voxel i is selected.
func (m *Mask) Included(i int) bool {
	return m.Data[i] > 0
}

// RowHasAny reports whether any voxel along X at (y, z) is selected.
func (m *Mask) RowHasAny(y, z int) bool {
	start := m.Nx * (y + m.Ny*z)
	for _, value := range m.Data[start : start+m.Nx] {
		if value > 0 {
			return true
		}
	}
	return false
}

// Count returns the number of selected voxels.
func (m *Mask) Count() int {
	return floats.Count(func(s float64) bool { return s > 0 }, m.Data)
}
