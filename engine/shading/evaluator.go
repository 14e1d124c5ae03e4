package shading

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

// Params are the per-fragment geometric inputs, all in world space. Normal is the final unit
// shading normal.
type Params struct {
	FragPos   [3]float32
	LightPos  [3]float32
	CameraPos [3]float32
	Normal    [3]float32
}

// Evaluator computes the RGBA color of one fragment.
type Evaluator func(p Params, m material.Material) [4]float32

// lighting holds the directions and intensities shared by the diffuse and specular terms.
type lighting struct {
	n  [3]float32
	l  [3]float32
	h  [3]float32
	ia float32
	il float32
}

func newLighting(p Params, ambientIntensity float32) lighting {
	n := common.Normalize3(p.Normal)
	l := common.Normalize3(common.Sub3(p.LightPos, p.FragPos))
	c := common.Normalize3(common.Sub3(p.CameraPos, p.FragPos))
	var facing float32
	if common.Dot3(c, n) >= 0 {
		facing = 1
	}
	return lighting{
		n:  n,
		l:  l,
		h:  common.Normalize3(common.Add3(l, c)),
		ia: ambientIntensity,
		il: facing * (1 - ambientIntensity),
	}
}

// term adds one reflectance contribution to out.
type term func(lit *lighting, m material.Material, out *[4]float32)

func addScaled(out *[4]float32, k [4]float32, s float32) {
	for i := range 4 {
		out[i] += s * k[i]
	}
}

func ambientTerm(lit *lighting, m material.Material, out *[4]float32) {
	addScaled(out, m.AmbientColor(), lit.ia)
}

func diffuseTerm(lit *lighting, m material.Material, out *[4]float32) {
	ln := math32.Max(common.Dot3(lit.l, lit.n), 0)
	addScaled(out, m.DiffuseColor(), lit.il*ln)
}

func specularTerm(lit *lighting, m material.Material, out *[4]float32) {
	hn := math32.Max(common.Dot3(lit.h, lit.n), 0)
	addScaled(out, m.SpecularColor(), lit.il*math32.Pow(hn, m.SpecularExponent()))
}

// normalsOnly maps the unit normal from [-1, 1] to [0, 1] with opaque alpha. It reads no
// material input.
func normalsOnly(p Params, _ material.Material) [4]float32 {
	n := common.Normalize3(p.Normal)
	return [4]float32{n[0]*0.5 + 0.5, n[1]*0.5 + 0.5, n[2]*0.5 + 0.5, 1}
}

func unlit(Params, material.Material) [4]float32 {
	return [4]float32{}
}

func ambientOnly(_ Params, m material.Material) [4]float32 {
	var out [4]float32
	addScaled(&out, m.AmbientColor(), m.AmbientIntensity())
	return out
}

// build assembles the evaluator for one effective mask from the enabled terms only.
func build(mask Mask) Evaluator {
	if mask.Has(CapNormalsOnly) {
		return normalsOnly
	}
	var terms []term
	if mask.Has(CapAmbient) {
		terms = append(terms, ambientTerm)
	}
	if mask.Has(CapDiffuse) {
		terms = append(terms, diffuseTerm)
	}
	if mask.Has(CapSpecular) {
		terms = append(terms, specularTerm)
	}

	switch {
	case len(terms) == 0:
		return unlit
	case len(terms) == 1 && mask.Has(CapAmbient):
		return ambientOnly
	}
	return func(p Params, m material.Material) [4]float32 {
		lit := newLighting(p, m.AmbientIntensity())
		var out [4]float32
		for _, t := range terms {
			t(&lit, m, &out)
		}
		return out
	}
}

// evaluators holds one pre-built evaluator per effective mask.
var evaluators [MaskBits + 1]Evaluator

func init() {
	for _, m := range AllMasks() {
		evaluators[m] = build(m)
	}
}

// Specialize returns the evaluator for mask. Bits outside MaskBits, such as CapDebugPath,
// are ignored. Call it once per pipeline, not per fragment.
//
// Parameters:
//   - mask: the enabled capabilities
//
// Returns:
//   - Evaluator: an evaluator that calls only the material accessors its terms need
func Specialize(mask Mask) Evaluator {
	return evaluators[mask.Effective()]
}

// Evaluate shades one fragment with the evaluator for mask.
//
// Parameters:
//   - mask: the enabled capabilities
//   - p: the fragment's geometric inputs
//   - m: the fragment's material
//
// Returns:
//   - [4]float32: the RGBA color
func Evaluate(mask Mask, p Params, m material.Material) [4]float32 {
	return Specialize(mask)(p, m)
}
