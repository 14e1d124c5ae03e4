package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-shade/engine/raster"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// maxConfigSize bounds the YAML file read by LoadConfig.
const maxConfigSize = 1024 * 1024

// Config drives one oxyshade run. Zero values in the file keep the defaults.
type Config struct {
	Mesh   string `yaml:"mesh"`
	Output string `yaml:"output"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	// Capabilities is a mask expression such as "ambient|diffuse|specular".
	Capabilities string `yaml:"capabilities"`

	// Normals is "compressed" or "uncompressed".
	Normals string `yaml:"normals"`

	Light      [3]float32 `yaml:"light"`
	Background [4]float32 `yaml:"background"`

	Camera    CameraConfig    `yaml:"camera"`
	Transform TransformConfig `yaml:"transform"`

	// Workers sizes the encoder and raster pools; 0 uses every CPU.
	Workers int `yaml:"workers"`

	// VariantsDir receives one WGSL file per specialized variant when set.
	VariantsDir string `yaml:"variants_dir"`

	// GPU renders the preview on a headless WebGPU device, falling back to the CPU
	// rasterizer when no adapter is available.
	GPU bool `yaml:"gpu"`

	// VertexShader and FragmentShader replace the built-in sources for the variant dump
	// and the GPU preview.
	VertexShader   string `yaml:"vertex_shader"`
	FragmentShader string `yaml:"fragment_shader"`

	LogLevel string `yaml:"log_level"`
	Profile  bool   `yaml:"profile"`
}

// CameraConfig places the orbit camera. Azimuth and Elevation are radians and Fov is
// degrees. A zero radius frames the mesh bounds, and a nil target aims at the bounds center.
type CameraConfig struct {
	Radius    float32     `yaml:"radius"`
	Azimuth   float32     `yaml:"azimuth"`
	Elevation float32     `yaml:"elevation"`
	Fov       float32     `yaml:"fov"`
	Near      float32     `yaml:"near"`
	Far       float32     `yaml:"far"`
	Target    *[3]float32 `yaml:"target"`
}

// TransformConfig is the model placement. Rotation is in degrees.
type TransformConfig struct {
	Translation [3]float32 `yaml:"translation"`
	Rotation    [3]float32 `yaml:"rotation"`
	Scale       [3]float32 `yaml:"scale"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Output:       "preview.png",
		Width:        512,
		Height:       512,
		Capabilities: "ambient|diffuse|specular",
		Normals:      "compressed",
		Light:        [3]float32{2, 4, 3},
		Background:   [4]float32{0.05, 0.05, 0.08, 1},
		Camera: CameraConfig{
			Elevation: 0.3926991,
			Fov:       60,
			Near:      0.1,
			Far:       100,
		},
		Transform: TransformConfig{Scale: [3]float32{1, 1, 1}},
		LogLevel:  "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns the defaults.
//
// Parameters:
//   - path: the config file, or ""
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read or parsed
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("config %s: %d bytes exceeds %d", path, info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Mesh == "" && c.VariantsDir == "" {
		errs = append(errs, errors.New("mesh or variants_dir is required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("image size %dx%d must be positive", c.Width, c.Height))
	}
	if _, err := c.Mask(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.NormalSource(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %v must be in (0, 180)", c.Camera.Fov))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera near %v and far %v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.Radius < 0 {
		errs = append(errs, fmt.Errorf("camera radius %v is negative", c.Camera.Radius))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d is negative", c.Workers))
	}
	if (c.VertexShader == "") != (c.FragmentShader == "") {
		errs = append(errs, errors.New("vertex_shader and fragment_shader must be set together"))
	}
	return errors.Join(errs...)
}

// Mask parses Capabilities.
func (c Config) Mask() (shading.Mask, error) {
	m, err := shading.ParseMask(c.Capabilities)
	if err != nil {
		return 0, fmt.Errorf("capabilities %q: %w", c.Capabilities, err)
	}
	return m, nil
}

// NormalSource parses Normals.
func (c Config) NormalSource() (raster.NormalSource, error) {
	switch strings.ToLower(c.Normals) {
	case "", "compressed":
		return raster.NormalsCompressed, nil
	case "uncompressed":
		return raster.NormalsUncompressed, nil
	}
	return 0, fmt.Errorf("normals %q: want compressed or uncompressed", c.Normals)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
