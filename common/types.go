// package common contains small shared types and helpers used throughout this engine. They are not interface-wrapped
// structs, just plain structs and functions that express commonly used data.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ErrTextureNotDecoded is returned when texel access is attempted before Decode.
var ErrTextureNotDecoded = errors.New("texture has not been decoded")

// ImportedTexture represents texture data referenced by a material.
// For embedded textures the Data field contains raw image bytes.
// For external textures the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "ambient", "diffuse").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// Pixels holds RGBA8 texels in row-major order (populated after Decode).
	Pixels []byte
}

// NewSolidTexture creates an already-decoded 1x1 texture holding a single RGBA color.
//
// Parameters:
//   - name: identifier for the texture
//   - rgba: the color, each channel in [0, 1]
//
// Returns:
//   - *ImportedTexture: the decoded texture
func NewSolidTexture(name string, rgba [4]float32) *ImportedTexture {
	px := make([]byte, 4)
	for i := range 4 {
		px[i] = byte(Clamp(rgba[i], 0, 1)*255 + 0.5)
	}
	return &ImportedTexture{Name: name, Width: 1, Height: 1, Pixels: px}
}

// Decode decodes the texture to raw RGBA pixel data and stores the result on the texture.
// Uses either embedded Data bytes or loads from Path on disk. Supports PNG and JPEG formats.
//
// Returns:
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() error {
	if t == nil {
		return fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	if len(t.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()
	t.Pixels = rgba.Pix
	return nil
}

// Texel returns the texel at integer coordinates as normalized RGBA. Coordinates wrap
// (repeat addressing). The texture must be decoded.
//
// Parameters:
//   - x: column, any integer
//   - y: row, any integer
//
// Returns:
//   - [4]float32: RGBA in [0, 1]
//   - error: ErrTextureNotDecoded if Decode has not run
func (t *ImportedTexture) Texel(x, y int) ([4]float32, error) {
	if t.Width <= 0 || t.Height <= 0 || len(t.Pixels) < t.Width*t.Height*4 {
		return [4]float32{}, ErrTextureNotDecoded
	}
	x = ((x % t.Width) + t.Width) % t.Width
	y = ((y % t.Height) + t.Height) % t.Height
	i := (y*t.Width + x) * 4
	return [4]float32{
		float32(t.Pixels[i]) / 255,
		float32(t.Pixels[i+1]) / 255,
		float32(t.Pixels[i+2]) / 255,
		float32(t.Pixels[i+3]) / 255,
	}, nil
}
