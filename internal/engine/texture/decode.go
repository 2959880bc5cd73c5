// Package texture decodes texture images and shares their GPU uploads between meshes.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for texture containers without a decoder.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// Decode decodes a texture file to RGBA. The format is chosen by extension for
// TGA and sniffed from the data otherwise (PNG, JPEG, GIF, BMP, WebP).
func Decode(name string, data []byte) (*image.RGBA, error) {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
	switch ext {
	case ".tga":
		// TGA has no magic number, so it cannot be sniffed.
		img, err := tga.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ToRGBA(img), nil
	case ".dds", ".blp":
		// GPU block-compressed and Blizzard containers are not decoded here.
		return nil, fmt.Errorf("decode %s: %w", name, ErrUnsupportedFormat)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("decode %s: %w", name, ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image.Image to a zero-origin *image.RGBA, returning img
// itself when it already is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// Checker generates a two-color checkerboard, used when even the placeholder
// texture cannot be loaded.
func Checker(size, cell int, a, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
