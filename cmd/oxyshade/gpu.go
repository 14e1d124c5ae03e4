package main

import (
	"context"
	"image"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/pipeline"
)

// renderOnDevice draws the model with the specialized pipelines on a headless device. The
// set matching the model's textured flag is the only one built.
func renderOnDevice(ctx context.Context, cfg Config, m model.Model, cam camera.Camera, prof *profiler.Profiler) (*image.RGBA, error) {
	defer prof.Start("gpu")()

	vs, fs, err := shaderSources(cfg)
	if err != nil {
		return nil, err
	}
	set, err := pipeline.NewSetFromSources("oxyshade", vs, fs, m.Textured())
	if err != nil {
		return nil, err
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, renderer.WithPipelineSet(set))
	if err != nil {
		return nil, err
	}
	defer r.Release()

	mask, _ := cfg.Mask()
	img, err := r.Render(ctx, []model.Model{m}, cam, renderer.Frame{
		Width:      cfg.Width,
		Height:     cfg.Height,
		LightPos:   cfg.Light,
		Mask:       mask,
		Background: cfg.Background,
	})
	if err != nil {
		return nil, err
	}
	common.Logger().Info("rendered preview on device", "mask", mask, "size", img.Bounds().Size())
	return img, nil
}
