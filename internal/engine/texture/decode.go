// Package texture decodes material images and uploads them to OpenGL.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	blezektga "github.com/blezek/tga"
	_ "github.com/ftrvxmtrx/tga"
	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode decodes an image in any registered format. TGA files that the
// registered decoder rejects are retried with a second TGA reader.
func Decode(data []byte, name string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil && strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err = blezektga.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}

// Load reads and decodes an image file.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, path)
}

type entry struct {
	img image.Image
	err error
}

// Cache decodes each texture name once, relative to Dir.
type Cache struct {
	Dir     string
	entries map[string]entry
}

// NewCache returns a cache resolving relative names against dir.
func NewCache(dir string) *Cache {
	return &Cache{Dir: dir, entries: make(map[string]entry)}
}

// Get returns the decoded image for name, loading it on first use. Failures
// are cached too.
func (c *Cache) Get(name string) (image.Image, error) {
	if e, ok := c.entries[name]; ok {
		return e.img, e.err
	}
	path := name
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, filepath.FromSlash(name))
	}
	img, err := Load(path)
	c.entries[name] = entry{img: img, err: err}
	return img, err
}

// Put stores an already decoded image, e.g. one embedded in a model file.
func (c *Cache) Put(name string, img image.Image) {
	c.entries[name] = entry{img: img}
}

// Len returns the number of cached names, failed ones included.
func (c *Cache) Len() int {
	return len(c.entries)
}

// ImageToRGBA converts any image.Image to *image.RGBA, reusing img when it
// already is one.
func ImageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// FlipVertical returns a copy of img with its rows in reverse order, the
// layout glReadPixels produces and image encoders do not expect.
func FlipVertical(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		dst := out.Pix[(b.Dy()-1-y)*out.Stride:]
		copy(dst[:rowLen], src)
	}
	return out
}
