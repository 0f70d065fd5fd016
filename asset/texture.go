package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// White returns a 1x1 opaque white image.
func White() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	return img
}

// TextureCache decodes image files into RGBA. Files with identical bytes
// decode once, whatever their path.
type TextureCache struct {
	mu     sync.Mutex
	byHash map[uint64]*image.RGBA
	hits   int
}

// NewTextureCache creates an empty cache.
func NewTextureCache() *TextureCache {
	return &TextureCache{byHash: make(map[uint64]*image.RGBA)}
}

// Load reads and decodes the image at path. PNG, JPEG, BMP, TIFF and WebP
// are supported.
func (c *TextureCache) Load(path string) (*image.RGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset: read texture: %w", err)
	}
	img, err := c.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("asset: texture %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes raw image bytes, returning the cached result for bytes it
// has already seen.
func (c *TextureCache) Decode(raw []byte) (*image.RGBA, error) {
	sum := xxhash.Sum64(raw)

	c.mu.Lock()
	if img, ok := c.byHash[sum]; ok {
		c.hits++
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	img := toRGBA(src)

	c.mu.Lock()
	c.byHash[sum] = img
	c.mu.Unlock()
	return img, nil
}

// Stats returns the number of distinct images and cache hits.
func (c *TextureCache) Stats() (entries, hits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byHash), c.hits
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
