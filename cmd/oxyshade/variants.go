package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// writeVariants builds the textured and untextured pipeline sets, writes each distinct
// vertex and fragment variant to cfg.VariantsDir and compiles it. Every failed compile is
// reported in the returned error.
func writeVariants(cfg Config) error {
	vs, fs, err := shaderSources(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.VariantsDir, 0o755); err != nil {
		return err
	}

	written := make(map[string]bool)
	var errs []error
	for _, textured := range []bool{false, true} {
		set, err := pipeline.NewSetFromSources("oxyshade", vs, fs, textured)
		if err != nil {
			return err
		}
		for _, p := range set.Pipelines() {
			name := variantFileName(p.Capabilities())
			if written[name] {
				continue
			}
			written[name] = true
			for _, st := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
				if err := writeVariant(cfg.VariantsDir, name, p.Shader(st)); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	common.Logger().Info("wrote shader variants", "dir", cfg.VariantsDir, "variants", len(written), "failed", len(errs))
	return errors.Join(errs...)
}

// shaderSources returns the configured shader overrides, or the built-in sources.
func shaderSources(cfg Config) (string, string, error) {
	if cfg.VertexShader == "" {
		return shading.GPUVertexSource, shading.GPUShadingSource, nil
	}
	v, err := os.ReadFile(cfg.VertexShader)
	if err != nil {
		return "", "", err
	}
	f, err := os.ReadFile(cfg.FragmentShader)
	if err != nil {
		return "", "", err
	}
	return string(v), string(f), nil
}

func writeVariant(dir, name string, s shader.Shader) error {
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.wgsl", name, s.ShaderType()))
	if err := os.WriteFile(path, []byte(s.Source()), 0o644); err != nil {
		return err
	}
	words, err := s.Compile()
	if err != nil {
		common.Logger().Warn("variant failed to compile", "path", path, "error", err)
		return err
	}
	common.Logger().Debug("compiled variant", "path", path, "words", len(words))
	return nil
}

// variantFileName turns "ambient|diffuse+textured" into "ambient_diffuse_textured".
func variantFileName(caps shader.Capabilities) string {
	return strings.NewReplacer("|", "_", "+", "_").Replace(caps.String())
}
