package texture

import (
	"image"
	"os"

	"github.com/HugoSmits86/nativewebp"
)

// SaveWebP writes img as a lossless WebP file.
func SaveWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
