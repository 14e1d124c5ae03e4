// Command oxyshade loads a glTF mesh, encodes its normals into per-triangle records and
// renders a shaded preview on the CPU, or on a headless GPU device with -gpu. With -variants it also writes every specialized
// WGSL variant and compiles each one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/schollz/progressbar/v3"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/loader"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shade/engine/raster"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "oxyshade:", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("oxyshade", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	mesh := fs.String("mesh", "", "glTF or GLB mesh, overrides the config")
	output := fs.String("o", "", "output PNG, overrides the config")
	caps := fs.String("caps", "", "capability mask such as ambient|diffuse, overrides the config")
	variants := fs.String("variants", "", "directory receiving the specialized WGSL variants")
	profile := fs.Bool("profile", false, "log stage timings")
	quiet := fs.Bool("quiet", false, "hide the progress bar")
	gpu := fs.Bool("gpu", false, "render the preview on a headless GPU device")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	cfg.Mesh = common.Coalesce(*mesh, cfg.Mesh)
	cfg.Output = common.Coalesce(*output, cfg.Output)
	cfg.Capabilities = common.Coalesce(*caps, cfg.Capabilities)
	cfg.VariantsDir = common.Coalesce(*variants, cfg.VariantsDir)
	cfg.Profile = cfg.Profile || *profile
	cfg.GPU = cfg.GPU || *gpu
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var prof *profiler.Profiler
	if cfg.Profile {
		prof = profiler.NewProfiler()
		defer prof.Report()
	}

	if cfg.VariantsDir != "" {
		done := prof.Start("variants")
		err := writeVariants(cfg)
		done()
		if err != nil {
			return err
		}
	}
	if cfg.Mesh == "" {
		return nil
	}

	asset, err := loadMesh(ctx, cfg, prof, !*quiet)
	if err != nil {
		return err
	}
	img, err := renderPreview(ctx, cfg, asset, prof)
	if err != nil {
		return err
	}
	return writePNG(cfg.Output, img)
}

// loadMesh imports the configured mesh and encodes its normals, showing a progress bar
// while the encoder runs.
func loadMesh(ctx context.Context, cfg Config, prof *profiler.Profiler, progress bool) (*loader.MeshAsset, error) {
	defer prof.Start("load")()

	opts := []normal.EncoderBuilderOption{}
	if cfg.Workers > 0 {
		opts = append(opts, normal.WithWorkers(cfg.Workers))
	}
	var bar *progressbar.ProgressBar
	if progress {
		opts = append(opts, normal.WithProgress(func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "encoding normals")
			}
			_ = bar.Set(done)
		}))
	}

	l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithEncoder(normal.NewEncoder(opts...)))
	asset, err := l.LoadAsset(ctx, cfg.Mesh)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}

	g := asset.Mesh.Geometry
	common.Logger().Info("loaded mesh",
		"name", asset.Name,
		"vertices", g.VertexCount(),
		"triangles", g.TriangleCount(),
		"textured", g.Textured(),
		"records", len(asset.TriNormals))
	return asset, nil
}

// renderPreview frames the asset with an orbit camera and renders it.
func renderPreview(ctx context.Context, cfg Config, asset *loader.MeshAsset, prof *profiler.Profiler) (*image.RGBA, error) {
	mask, _ := cfg.Mask()
	source, _ := cfg.NormalSource()

	t := cfg.Transform
	m := asset.NewModel(model.WithTransform(model.Transform{
		Translation: t.Translation,
		Rotation:    [3]float32{radians(t.Rotation[0]), radians(t.Rotation[1]), radians(t.Rotation[2])},
		Scale:       t.Scale,
	}))
	if asset.Textures != nil {
		if err := asset.Textures.Decode(); err != nil {
			return nil, fmt.Errorf("decode textures: %w", err)
		}
	}

	cam := newCamera(cfg, asset)
	if cfg.GPU {
		img, err := renderOnDevice(ctx, cfg, m, cam, prof)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		common.Logger().Warn("GPU preview failed, falling back to the CPU rasterizer", "error", err)
	}

	frame := raster.FrameFromCamera(cam, cfg.Width, cfg.Height, cfg.Light, mask)
	frame.Background = cfg.Background

	opts := []raster.RendererBuilderOption{raster.WithNormalSource(source), raster.WithProfiler(prof)}
	if cfg.Workers > 0 {
		opts = append(opts, raster.WithWorkers(cfg.Workers))
	}
	img, err := raster.NewRenderer(opts...).Render(ctx, []model.Model{m}, frame)
	if err != nil {
		return nil, err
	}
	common.Logger().Info("rendered preview", "mask", mask, "normals", cfg.Normals, "size", img.Bounds().Size())
	return img, nil
}

// newCamera builds the orbit camera, filling an unset radius and target from the mesh bounds.
func newCamera(cfg Config, asset *loader.MeshAsset) camera.Camera {
	b := asset.Mesh.Bounds
	target := [3]float32(b.Center)
	if cfg.Camera.Target != nil {
		target = *cfg.Camera.Target
	}
	radius := cfg.Camera.Radius
	if radius == 0 {
		extent := math32.Max(b.Size[0], math32.Max(b.Size[1], b.Size[2]))
		radius = math32.Max(extent*1.8, cfg.Camera.Near*2)
	}

	ctrl := camera.NewOrbitController(
		camera.WithTarget(target),
		camera.WithRadius(radius),
		camera.WithAzimuth(cfg.Camera.Azimuth),
		camera.WithElevation(cfg.Camera.Elevation),
	)
	return camera.NewCamera(
		camera.WithFov(radians(cfg.Camera.Fov)),
		camera.WithAspect(float32(cfg.Width)/float32(cfg.Height)),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithController(ctrl),
	)
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	common.Logger().Info("wrote preview", "path", path)
	return nil
}

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}
