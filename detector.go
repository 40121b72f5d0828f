package facemood

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

// DetectParams holds the tuning constants passed to the face locator.
type DetectParams struct {
	// ScaleFactor is the step between two detection window scales. Must be > 1.
	ScaleFactor float64
	// MinNeighbors is the number of overlapping candidates required to keep a detection.
	MinNeighbors int
	// MinSize is the smallest face edge in pixels. Zero lets the locator decide.
	MinSize int
}

// DefaultDetectParams returns the detection parameters used by every surface.
func DefaultDetectParams() DetectParams {
	return DetectParams{
		ScaleFactor:  1.3,
		MinNeighbors: 5,
	}
}

// FaceLocator finds the bounding boxes of the faces in a grayscale image.
// The order of the returned rectangles is implementation defined.
type FaceLocator interface {
	Locate(gray *image.Gray, params DetectParams) []image.Rectangle
}

// Classifier maps a face patch to the raw scores of the seven emotion classes.
type Classifier interface {
	Classify(patch *Patch) ([]float32, error)
}

// Result is the outcome of a single pipeline pass.
type Result struct {
	// Frame is the annotated frame.
	Frame *image.NRGBA
	// Faces are ordered as returned by the face locator.
	Faces []Face
}

// Empty reports whether no face was detected.
func (r *Result) Empty() bool {
	return r == nil || len(r.Faces) == 0
}

// Last returns the most recently classified face.
func (r *Result) Last() (Face, bool) {
	if r.Empty() {
		return Face{}, false
	}
	return r.Faces[len(r.Faces)-1], true
}

// Detector runs the face detection and emotion classification pipeline.
// A Detector is not safe for concurrent use, since the underlying locator
// and classifier handles are usually not.
type Detector struct {
	Locator    FaceLocator
	Classifier Classifier
	Params     DetectParams
	Log        logrus.FieldLogger
}

// NewDetector creates a detector using the default detection parameters.
func NewDetector(locator FaceLocator, classifier Classifier) *Detector {
	return &Detector{
		Locator:    locator,
		Classifier: classifier,
		Params:     DefaultDetectParams(),
		Log:        logrus.StandardLogger(),
	}
}

// Process locates the faces on the frame, classifies each of them and annotates
// the frame in place. A frame without faces is not an error: the returned result is empty
// and the frame is left untouched. In case the classifier fails on any face
// the frame is abandoned and left unannotated.
func (d *Detector) Process(frame *image.NRGBA) (*Result, error) {
	res := &Result{Frame: frame}
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrInvalidImage)
	}

	gray := Grayscale(frame)
	origin := frame.Bounds().Min

	regions := d.Locator.Locate(gray, d.Params)
	d.logger().WithField("regions", len(regions)).Debug("faces located")

	for i, region := range regions {
		// The grayscale image starts at (0, 0), the frame might not.
		rect := region.Add(origin).Intersect(frame.Bounds())
		if rect.Empty() {
			d.logger().WithField("region", region).Debug("skipping face region outside of the frame")
			continue
		}

		patch, err := NewPatch(frame, rect)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		scores, err := d.Classifier.Classify(patch)
		if err != nil {
			return nil, fmt.Errorf("classifying face %d: %w", i, err)
		}
		pred, err := NewPrediction(scores)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}

		emotion := pred.Argmax()
		res.Faces = append(res.Faces, Face{
			Region:     rect,
			Prediction: pred,
			Emotion:    emotion,
			Confidence: pred[emotion],
		})
	}

	Annotate(frame, res.Faces)
	return res, nil
}

func (d *Detector) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}
