package texture

import (
	"fmt"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/assets"
	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
	"github.com/Faultbox/midgard-mdx/internal/logger"
)

// Source provides texture file bytes. *assets.Manager implements it.
type Source interface {
	Exists(path string) bool
	Load(path string) ([]byte, error)
}

// Cache maps texture paths to GPU textures so repeated references share one upload.
type Cache struct {
	dev      gpu.Device
	files    Source
	textures map[string]gpu.Texture
	fallback gpu.Texture
	log      *zap.Logger
}

// NewCache creates an empty cache uploading through dev.
func NewCache(dev gpu.Device, files Source) *Cache {
	return &Cache{
		dev:      dev,
		files:    files,
		textures: make(map[string]gpu.Texture),
		log:      logger.Named("texture"),
	}
}

// Exists reports whether the underlying source has path.
func (c *Cache) Exists(path string) bool {
	return c.files.Exists(path)
}

// Load returns the texture for path, decoding and uploading it on first use.
// Paths differing only in case or separator share a texture.
func (c *Cache) Load(path string) (gpu.Texture, error) {
	k := assets.Key(path)
	if t, ok := c.textures[k]; ok {
		return t, nil
	}

	data, err := c.files.Load(path)
	if err != nil {
		return 0, fmt.Errorf("load texture: %w", err)
	}
	img, err := Decode(path, data)
	if err != nil {
		return 0, err
	}

	t := c.dev.CreateTexture(img)
	c.textures[k] = t
	c.log.Debug("texture uploaded", zap.String("path", path),
		zap.Int("width", img.Rect.Dx()), zap.Int("height", img.Rect.Dy()))
	return t, nil
}

// Placeholder returns the texture for path, falling back to a generated
// checkerboard when the placeholder file itself is unusable. The result is
// always a valid texture.
func (c *Cache) Placeholder(path string) gpu.Texture {
	if path != "" {
		if t, err := c.Load(path); err == nil {
			return t
		}
	}
	return c.Fallback()
}

// Fallback returns the generated checkerboard texture, creating it once.
func (c *Cache) Fallback() gpu.Texture {
	if c.fallback == 0 {
		img := Checker(64, 8,
			color.RGBA{R: 255, B: 255, A: 255},
			color.RGBA{A: 255})
		c.fallback = c.dev.CreateTexture(img)
	}
	return c.fallback
}

// Len returns the number of file textures held.
func (c *Cache) Len() int {
	return len(c.textures)
}

// Release deletes every texture from the GPU and empties the cache.
func (c *Cache) Release() {
	for _, t := range c.textures {
		c.dev.DeleteTexture(t)
	}
	clear(c.textures)
	if c.fallback != 0 {
		c.dev.DeleteTexture(c.fallback)
		c.fallback = 0
	}
}
