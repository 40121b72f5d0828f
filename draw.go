package facemood

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	rectThickness = 2
	captionOffset = 10
	captionSize   = 18
)

var (
	rectColor    = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	captionColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

var (
	fontOnce sync.Once
	goFont   *opentype.Font
)

// newFace returns a Go Regular font face of the given size.
// Font faces cache glyphs, so they are not shared between goroutines.
func newFace(size float64) font.Face {
	fontOnce.Do(func() {
		goFont, _ = opentype.Parse(goregular.TTF)
	})
	if goFont == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(goFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Annotate draws a rectangle around each face and a caption with the
// predicted emotion and its confidence right above it.
func Annotate(dst *image.NRGBA, faces []Face) {
	if len(faces) == 0 {
		return
	}
	face := newFace(captionSize)
	defer face.Close()

	for _, f := range faces {
		drawRect(dst, f.Region, rectThickness, rectColor)
		drawText(dst, face, f.Caption(), f.Region.Min.X, f.Region.Min.Y-captionOffset, captionColor)
	}
}

// drawRect draws the outline of the rectangle with the given line thickness.
// The outline is drawn inside the rectangle, so it never leaves the region.
func drawRect(dst draw.Image, r image.Rectangle, thickness int, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := &image.Uniform{c}
	t := thickness
	if t > r.Dx() || t > r.Dy() {
		draw.Draw(dst, r, src, image.Point{}, draw.Src)
		return
	}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), // top
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), // left
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// drawText draws the text with its baseline at (x, y). The position is
// shifted so that the text stays inside the destination image whenever it fits.
func drawText(dst draw.Image, face font.Face, text string, x, y int, c color.Color) {
	b := dst.Bounds()
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	ascent, descent := metrics.Ascent.Ceil(), metrics.Descent.Ceil()

	if x+width > b.Max.X {
		x = b.Max.X - width
	}
	if x < b.Min.X {
		x = b.Min.X
	}
	if y-ascent < b.Min.Y {
		y = b.Min.Y + ascent
	}
	if y+descent > b.Max.Y {
		y = b.Max.Y - descent
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{c},
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
