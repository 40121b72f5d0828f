package facemood

import (
	"fmt"
	"image"
	"os"

	"github.com/esimov/facemood/utils"
	pigo "github.com/esimov/pigo/core"
)

// Default pigo detection settings.
const (
	pigoShiftFactor = 0.1
	pigoIoU         = 0.2
	pigoMinSize     = 20
	// DefaultPigoQuality is the detection score below which pigo results are dropped.
	DefaultPigoQuality = 5.0
)

// PigoLocator is a pure Go face locator backed by the pigo cascade classifier.
type PigoLocator struct {
	classifier *pigo.Pigo
	// Angle is the in-plane rotation of the searched faces in the [0, 1] range (1 = 2π).
	Angle float64
	// MinQuality drops the detections with a lower score.
	MinQuality float32
}

var _ FaceLocator = (*PigoLocator)(nil)

// LoadPigo reads the binary cascade file and creates a new pigo locator.
func LoadPigo(path string) (*PigoLocator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading the cascade file: %v", ErrAssetLoad, err)
	}
	return NewPigoLocator(data)
}

// NewPigoLocator unpacks the cascade data and returns the locator.
func NewPigoLocator(cascade []byte) (loc *PigoLocator, err error) {
	// The header holds the version, the tree depth and the tree count.
	if len(cascade) < 16 {
		return nil, fmt.Errorf("%w: the cascade file is too short", ErrAssetLoad)
	}
	// Unpack indexes the raw data without bound checks, so a corrupt file panics.
	defer func() {
		if r := recover(); r != nil {
			loc, err = nil, fmt.Errorf("%w: corrupt cascade file: %v", ErrAssetLoad, r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: error unpacking the cascade file: %v", ErrAssetLoad, err)
	}
	return &PigoLocator{
		classifier: classifier,
		MinQuality: DefaultPigoQuality,
	}, nil
}

// Locate runs the cascade over the grayscale image. Pigo has no notion
// of minimum neighbors, overlapping detections are clustered by IoU instead.
func (l *PigoLocator) Locate(gray *image.Gray, params DetectParams) []image.Rectangle {
	cols, rows := gray.Bounds().Dx(), gray.Bounds().Dy()
	if cols == 0 || rows == 0 {
		return nil
	}
	minSize := params.MinSize
	if minSize <= 0 {
		minSize = pigoMinSize
	}
	scale := params.ScaleFactor
	if scale <= 1 {
		scale = DefaultDetectParams().ScaleFactor
	}

	cParams := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     utils.Max(cols, rows),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: scale,

		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    gray.Stride,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	dets := l.classifier.RunCascade(cParams, l.Angle)

	// Calculate the intersection over union (IoU) of two clusters.
	dets = l.classifier.ClusterDetections(dets, pigoIoU)

	rects := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < l.MinQuality {
			continue
		}
		rects = append(rects, image.Rect(
			det.Col-det.Scale/2,
			det.Row-det.Scale/2,
			det.Col+det.Scale/2,
			det.Row+det.Scale/2,
		))
	}
	return rects
}
