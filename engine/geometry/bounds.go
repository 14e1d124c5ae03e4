package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// MaxBounds is the axis-aligned box around a set of positions, stored as center and extent.
type MaxBounds struct {
	Center layout.PackedFloat3
	Size   layout.PackedFloat3
}

// CalculateBounds returns the smallest axis-aligned box holding every position.
// An empty slice yields the zero box.
//
// Parameters:
//   - positions: model-space positions
//
// Returns:
//   - MaxBounds: the box
func CalculateBounds(positions []layout.PackedFloat3) MaxBounds {
	if len(positions) == 0 {
		return MaxBounds{}
	}
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		for k := range 3 {
			lo[k] = math32.Min(lo[k], p[k])
			hi[k] = math32.Max(hi[k], p[k])
		}
	}
	var b MaxBounds
	for k := range 3 {
		b.Center[k] = (lo[k] + hi[k]) * 0.5
		b.Size[k] = hi[k] - lo[k]
	}
	return b
}

// Min returns the minimum corner.
func (b MaxBounds) Min() [3]float32 {
	return [3]float32{b.Center[0] - b.Size[0]*0.5, b.Center[1] - b.Size[1]*0.5, b.Center[2] - b.Size[2]*0.5}
}

// Max returns the maximum corner.
func (b MaxBounds) Max() [3]float32 {
	return [3]float32{b.Center[0] + b.Size[0]*0.5, b.Center[1] + b.Size[1]*0.5, b.Center[2] + b.Size[2]*0.5}
}

// Radius returns half the diagonal of the box.
func (b MaxBounds) Radius() float32 {
	return 0.5 * math32.Sqrt(b.Size[0]*b.Size[0]+b.Size[1]*b.Size[1]+b.Size[2]*b.Size[2])
}
