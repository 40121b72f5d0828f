package facemood

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// PatchSize is the width and height of the face patch fed to the classifier.
const PatchSize = 64

// Grayscale converts the frame to a single channel luminance image
// with min-point at (0, 0) and a stride equal to the image width.
func Grayscale(src *image.NRGBA) *image.Gray {
	bounds := src.Bounds()
	dx, dy := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, dx, dy))

	for y := 0; y < dy; y++ {
		si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < dx; x++ {
			r, g, b := float64(src.Pix[si]), float64(src.Pix[si+1]), float64(src.Pix[si+2])
			lum := 0.299*r + 0.587*g + 0.114*b
			dst.Pix[di+x] = uint8(math.Min(math.Round(lum), 255))
			si += 4
		}
	}
	return dst
}

// Patch is a normalized grayscale face crop of PatchSize x PatchSize pixels.
// Values are stored row-major in the [0, 1] range.
type Patch struct {
	Pix []float32
}

// NewPatch crops the region from the colour frame, converts the crop to grayscale,
// resizes it to PatchSize x PatchSize and scales the pixel values into [0, 1].
func NewPatch(frame image.Image, region image.Rectangle) (*Patch, error) {
	region = region.Intersect(frame.Bounds())
	if region.Empty() {
		return nil, ErrEmptyRegion
	}
	crop := imaging.Crop(frame, region)
	gray := imaging.Grayscale(crop)
	small := imaging.Resize(gray, PatchSize, PatchSize, imaging.Linear)

	p := &Patch{Pix: make([]float32, PatchSize*PatchSize)}
	for y := 0; y < PatchSize; y++ {
		for x := 0; x < PatchSize; x++ {
			// The grayscale image has identical R, G and B channels.
			p.Pix[y*PatchSize+x] = float32(small.Pix[small.PixOffset(x, y)]) / 255
		}
	}
	return p, nil
}

// At returns the normalized value at (x, y).
func (p *Patch) At(x, y int) float32 {
	return p.Pix[y*PatchSize+x]
}

// Shape returns the tensor shape expected by the classifier: batch, height, width, channels.
func (p *Patch) Shape() [4]int {
	return [4]int{1, PatchSize, PatchSize, 1}
}

// Tensor returns the patch as a flattened (1, 64, 64, 1) tensor.
// With a single channel the NHWC and NCHW layouts are identical.
func (p *Patch) Tensor() []float32 {
	return p.Pix
}
