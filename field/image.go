package field

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageOptions controls how an image is turned into a Field.
type ImageOptions struct {
	// MaxDimension caps the longest side of the field. Larger images are
	// scaled down preserving aspect ratio. Zero keeps the original size.
	MaxDimension int
	// Gamma is applied to every weight as w^Gamma. Zero or one leaves
	// weights unchanged.
	Gamma float64
}

// FromImage determines the weight of every pixel of img according to m and
// returns the result as a new Field.
func FromImage(img image.Image, m Model, opts ImageOptions) (*Field, error) {
	if m == nil {
		m = Darkness
	}
	img = fit(img, opts.MaxDimension)

	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidField)
	}

	weights := make([]float64, w*h)
	gamma := opts.Gamma
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := clamp01(m.Convert(img.At(r.Min.X+x, r.Min.Y+y)))
			if gamma > 0 && gamma != 1 {
				v = math.Pow(v, gamma)
			}
			weights[y*w+x] = v
		}
	}
	return New(w, h, weights)
}

// Load decodes the image at path and converts it with FromImage.
func Load(path string, m Model, opts ImageOptions) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return FromImage(img, m, opts)
}

// fit scales img down so that its longest side is at most maxDim.
func fit(img image.Image, maxDim int) image.Image {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, r, draw.Src, nil)
	return dst
}
