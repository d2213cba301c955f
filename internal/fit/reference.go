package fit

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"os"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageContext is the read-only reference of one run: its pixels and
// extents. It is built once and shared by every evaluation of that run.
type ImageContext struct {
	ref    *image.NRGBA
	width  int
	height int
}

// NewImageContext copies img into an NRGBA buffer anchored at the origin.
func NewImageContext(img image.Image) *ImageContext {
	bounds := img.Bounds()
	ref := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Copy(ref, image.Point{}, img, bounds, draw.Src, nil)

	return &ImageContext{
		ref:    ref,
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}
}

// Reference returns the reference pixels. Callers must not modify them.
func (c *ImageContext) Reference() *image.NRGBA { return c.ref }

// Width returns the reference width in pixels.
func (c *ImageContext) Width() int { return c.width }

// Height returns the reference height in pixels.
func (c *ImageContext) Height() int { return c.height }

// LoadReference decodes an image file (png, jpeg, gif, bmp, tiff, webp).
// When maxSize > 0 and the longer side exceeds it, the image is scaled
// down preserving the aspect ratio.
func LoadReference(path string, maxSize int) (*ImageContext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reference: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("reference image %s is empty", path)
	}

	if w, h, ok := fitWithin(bounds.Dx(), bounds.Dy(), maxSize); ok {
		slog.Debug("Downscaling reference", "from_width", bounds.Dx(), "from_height", bounds.Dy(), "width", w, "height", h)
		img = transform.Resize(img, w, h, transform.Linear)
	}

	ctx := NewImageContext(img)
	slog.Debug("Loaded reference", "path", path, "format", format, "width", ctx.width, "height", ctx.height)
	return ctx, nil
}

// fitWithin returns the scaled size when the longer side exceeds maxSize
func fitWithin(width, height, maxSize int) (int, int, bool) {
	longer := max(width, height)
	if maxSize <= 0 || longer <= maxSize {
		return width, height, false
	}
	scale := float64(maxSize) / float64(longer)
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	return w, h, true
}

// DiffImage creates a false-color difference image: black where the images
// agree, red where they differ most.
func DiffImage(ref, best *image.NRGBA) *image.NRGBA {
	bounds := ref.Bounds()
	diff := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, _ := ref.At(x, y).RGBA()
			r2, g2, b2, _ := best.At(x, y).RGBA()

			// Per-channel differences in the 0-65535 range
			dr := int(r1) - int(r2)
			dg := int(g1) - int(g2)
			db := int(b1) - int(b2)

			diffMag := math.Sqrt(float64(dr*dr + dg*dg + db*db))

			// Max magnitude is ~113k, scale to 0-255
			normalized := uint8(math.Min(255, diffMag/443.0))

			diff.Set(x, y, color.NRGBA{normalized, 0, 0, 255})
		}
	}

	return diff
}
