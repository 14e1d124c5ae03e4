package model

import "github.com/Carmen-Shannon/oxy-shade/common"

// Transform places a model in the world.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation holds Euler angles in radians, applied Y * X * Z.
	Rotation [3]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform that leaves the model where it is.
func IdentityTransform() Transform {
	return Transform{Scale: [3]float32{1, 1, 1}}
}

// Matrix returns the column-major model-to-world matrix.
func (t Transform) Matrix() [16]float32 {
	var m [16]float32
	common.BuildModelMatrix(m[:], t.Translation, t.Rotation, t.Scale)
	return m
}
