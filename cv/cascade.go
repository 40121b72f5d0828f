package cv

import (
	"fmt"
	"image"

	"github.com/esimov/facemood"
	"gocv.io/x/gocv"
)

// DefaultCascade is the name of the frontal face Haar cascade shipped with OpenCV.
const DefaultCascade = "haarcascade_frontalface_default.xml"

// Cascade is a face locator backed by an OpenCV Haar cascade classifier.
type Cascade struct {
	classifier gocv.CascadeClassifier
}

var _ facemood.FaceLocator = (*Cascade)(nil)

// LoadCascade loads the cascade classifier from the XML file.
func LoadCascade(path string) (*Cascade, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: failed to load the face cascade classifier %s", facemood.ErrAssetLoad, path)
	}
	return &Cascade{classifier: classifier}, nil
}

// Locate runs the multi-scale detection over the grayscale image.
func (c *Cascade) Locate(gray *image.Gray, params facemood.DetectParams) []image.Rectangle {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil
	}
	defer mat.Close()

	minSize := image.Pt(params.MinSize, params.MinSize)
	return c.classifier.DetectMultiScaleWithParams(
		mat, params.ScaleFactor, params.MinNeighbors, 0, minSize, image.Point{},
	)
}

// Close releases the classifier.
func (c *Cascade) Close() error {
	return c.classifier.Close()
}
