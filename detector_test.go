package facemood

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocator struct {
	rects  []image.Rectangle
	params DetectParams
	calls  int
}

func (f *fakeLocator) Locate(gray *image.Gray, params DetectParams) []image.Rectangle {
	f.calls++
	f.params = params
	return f.rects
}

type fakeClassifier struct {
	scores  []float32
	err     error
	patches []*Patch
}

func (f *fakeClassifier) Classify(p *Patch) ([]float32, error) {
	f.patches = append(f.patches, p)
	return f.scores, f.err
}

var happyScores = []float32{0.02, 0.01, 0.03, 0.8234, 0.05, 0.0466, 0.02}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestDetector(loc FaceLocator, cls Classifier) *Detector {
	d := NewDetector(loc, cls)
	d.Log = quietLogger()
	return d
}

func newFrame(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

var midGray = color.NRGBA{R: 100, G: 100, B: 100, A: 255}

func TestDetector_DefaultParams(t *testing.T) {
	loc := &fakeLocator{}
	det := newTestDetector(loc, &fakeClassifier{scores: happyScores})

	_, err := det.Process(newFrame(50, 50, midGray))
	require.NoError(t, err)
	assert.Equal(t, 1, loc.calls)
	assert.Equal(t, 1.3, loc.params.ScaleFactor)
	assert.Equal(t, 5, loc.params.MinNeighbors)
}

func TestDetector_NoFace(t *testing.T) {
	cls := &fakeClassifier{scores: happyScores}
	det := newTestDetector(&fakeLocator{}, cls)

	frame := newFrame(80, 60, midGray)
	orig := append([]uint8(nil), frame.Pix...)

	res, err := det.Process(frame)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Faces)
	assert.Empty(t, cls.patches)
	// No annotation on frames without faces.
	assert.Equal(t, orig, frame.Pix)

	_, ok := res.Last()
	assert.False(t, ok)
}

func TestDetector_MultipleFaces(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(10, 30, 60, 80),
		image.Rect(100, 30, 150, 80),
		image.Rect(180, 100, 230, 150),
	}
	cls := &fakeClassifier{scores: happyScores}
	det := newTestDetector(&fakeLocator{rects: rects}, cls)

	res, err := det.Process(newFrame(240, 160, midGray))
	require.NoError(t, err)
	require.Len(t, res.Faces, len(rects))
	require.Len(t, cls.patches, len(rects))

	for i, f := range res.Faces {
		assert.Equal(t, rects[i], f.Region)
		assert.Len(t, f.Prediction, NumEmotions)

		var sum float64
		for _, v := range f.Prediction {
			sum += float64(v)
		}
		assert.InDelta(t, 1, sum, 1e-4)
		assert.Equal(t, Happy, f.Emotion)
		assert.Equal(t, float32(0.8234), f.Confidence)
	}

	last, ok := res.Last()
	require.True(t, ok)
	assert.Equal(t, rects[2], last.Region)
}

func TestDetector_PatchIsNormalized(t *testing.T) {
	cls := &fakeClassifier{scores: happyScores}
	det := newTestDetector(&fakeLocator{rects: []image.Rectangle{image.Rect(0, 0, 40, 40)}}, cls)

	frame := newFrame(100, 100, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	_, err := det.Process(frame)
	require.NoError(t, err)
	require.Len(t, cls.patches, 1)

	p := cls.patches[0]
	assert.Equal(t, [4]int{1, PatchSize, PatchSize, 1}, p.Shape())
	assert.Len(t, p.Tensor(), PatchSize*PatchSize)
	for _, v := range p.Tensor() {
		assert.InDelta(t, 1.0, v, 1e-6)
	}
}

func TestDetector_AnnotatesFaces(t *testing.T) {
	region := image.Rect(40, 40, 100, 100)
	det := newTestDetector(&fakeLocator{rects: []image.Rectangle{region}}, &fakeClassifier{scores: happyScores})

	frame := newFrame(160, 140, color.NRGBA{A: 255})
	res, err := det.Process(frame)
	require.NoError(t, err)
	require.Len(t, res.Faces, 1)
	assert.Same(t, frame, res.Frame)

	green := color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	assert.Equal(t, green, frame.NRGBAAt(region.Min.X, region.Min.Y+30))
	assert.Equal(t, green, frame.NRGBAAt(region.Max.X-1, region.Min.Y+30))
	assert.Equal(t, green, frame.NRGBAAt(region.Min.X+30, region.Max.Y-2))
	// The inside of the rectangle is untouched.
	assert.Equal(t, color.NRGBA{A: 255}, frame.NRGBAAt(region.Min.X+30, region.Min.Y+30))
}

func TestDetector_ClampsRegions(t *testing.T) {
	cls := &fakeClassifier{scores: happyScores}
	rects := []image.Rectangle{
		image.Rect(-20, -10, 40, 30),  // partially outside
		image.Rect(500, 500, 540, 540), // fully outside
	}
	det := newTestDetector(&fakeLocator{rects: rects}, cls)

	res, err := det.Process(newFrame(100, 80, midGray))
	require.NoError(t, err)
	require.Len(t, res.Faces, 1)
	assert.Equal(t, image.Rect(0, 0, 40, 30), res.Faces[0].Region)
	assert.Len(t, cls.patches, 1)
}

func TestDetector_ClassifierError(t *testing.T) {
	boom := errors.New("boom")
	det := newTestDetector(&fakeLocator{rects: []image.Rectangle{image.Rect(0, 0, 20, 20)}}, &fakeClassifier{err: boom})

	frame := newFrame(40, 40, midGray)
	orig := append([]uint8(nil), frame.Pix...)

	res, err := det.Process(frame)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.Equal(t, orig, frame.Pix)
}

func TestDetector_InvalidPrediction(t *testing.T) {
	testCases := map[string][]float32{
		"wrong length":   {0.5, 0.5},
		"not normalized": {0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
		"negative":       {-0.5, 0.5, 0.5, 0.5, 0, 0, 0},
		"NaN":            {float32(math.NaN()), 0, 0, 1, 0, 0, 0},
	}
	for name, scores := range testCases {
		t.Run(name, func(t *testing.T) {
			det := newTestDetector(&fakeLocator{rects: []image.Rectangle{image.Rect(0, 0, 20, 20)}}, &fakeClassifier{scores: scores})
			_, err := det.Process(newFrame(40, 40, midGray))
			assert.ErrorIs(t, err, ErrInvalidPrediction)
		})
	}
}

func TestDetector_EmptyFrame(t *testing.T) {
	det := newTestDetector(&fakeLocator{}, &fakeClassifier{scores: happyScores})

	_, err := det.Process(image.NewNRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = det.Process(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDetector_OffsetFrame(t *testing.T) {
	cls := &fakeClassifier{scores: happyScores}
	det := newTestDetector(&fakeLocator{rects: []image.Rectangle{image.Rect(0, 0, 20, 20)}}, cls)

	frame := image.NewNRGBA(image.Rect(10, 10, 60, 60))
	res, err := det.Process(frame)
	require.NoError(t, err)
	require.Len(t, res.Faces, 1)
	assert.Equal(t, image.Rect(10, 10, 30, 30), res.Faces[0].Region)
}
