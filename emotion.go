package facemood

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
)

// Emotion is the index of an emotion class inside the fixed label table.
type Emotion int

// The emotion classes in the order produced by the classifier.
const (
	Angry Emotion = iota
	Disgust
	Fear
	Happy
	Sad
	Surprise
	Neutral
)

// NumEmotions is the length of every prediction vector.
const NumEmotions = 7

// probTolerance is the accepted deviation of a prediction sum from 1.
const probTolerance = 1e-4

var (
	labels = [NumEmotions]string{"Angry", "Disgust", "Fear", "Happy", "Sad", "Surprise", "Neutral"}
	emojis = [NumEmotions]string{"😠", "🤢", "😨", "😄", "😢", "😲", "😐"}
)

var (
	// ErrInvalidPrediction is returned when the classifier output is not a
	// probability distribution over the seven emotion classes.
	ErrInvalidPrediction = errors.New("invalid emotion prediction")
	// ErrInvalidImage is returned for unreadable or malformed input images.
	ErrInvalidImage = errors.New("invalid image")
	// ErrAssetLoad is returned when a model or cascade file cannot be loaded.
	ErrAssetLoad = errors.New("unable to load asset")
	// ErrEmptyRegion is returned when a face region lies outside the frame.
	ErrEmptyRegion = errors.New("face region is empty")
)

// Labels returns a copy of the emotion label table.
func Labels() []string {
	out := make([]string, NumEmotions)
	copy(out, labels[:])
	return out
}

// String returns the label of the emotion.
func (e Emotion) String() string {
	if e < 0 || e >= NumEmotions {
		return fmt.Sprintf("Emotion(%d)", int(e))
	}
	return labels[e]
}

// Emoji returns the emoji paired with the emotion.
func (e Emotion) Emoji() string {
	if e < 0 || e >= NumEmotions {
		return ""
	}
	return emojis[e]
}

// Prediction is a probability distribution over the emotion classes,
// aligned positionally with the label table.
type Prediction []float32

// NewPrediction validates the raw classifier scores and returns them as a Prediction.
func NewPrediction(scores []float32) (Prediction, error) {
	p := make(Prediction, len(scores))
	copy(p, scores)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the prediction has one non-negative entry per class
// and that the entries sum up to 1.
func (p Prediction) Validate() error {
	if len(p) != NumEmotions {
		return fmt.Errorf("%w: expected %d scores, got %d", ErrInvalidPrediction, NumEmotions, len(p))
	}
	var sum float64
	for i, v := range p {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return fmt.Errorf("%w: score %d (%s) is %v", ErrInvalidPrediction, i, labels[i], v)
		}
		sum += f
	}
	if math.Abs(sum-1) > probTolerance {
		return fmt.Errorf("%w: scores sum up to %.6f", ErrInvalidPrediction, sum)
	}
	return nil
}

// Argmax returns the most probable emotion. Ties go to the lowest index.
func (p Prediction) Argmax() Emotion {
	idx := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[idx] {
			idx = i
		}
	}
	return Emotion(idx)
}

// Confidence returns the probability of the predicted emotion.
func (p Prediction) Confidence() float32 {
	if len(p) == 0 {
		return 0
	}
	return p[p.Argmax()]
}

// FormatConfidence formats a probability as a percentage with one decimal,
// rounding half away from zero, e.g. 0.8234 -> "82.3%".
func FormatConfidence(prob float32) string {
	// Go through the shortest decimal representation of the float32 value,
	// otherwise 0.8235 would be rounded from 0.82349997.
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(prob), 'f', -1, 32), 64)
	if err != nil {
		v = float64(prob)
	}
	return fmt.Sprintf("%.1f%%", math.Round(v*1000)/10)
}

// Face holds the classification of a single detected face.
type Face struct {
	Region     image.Rectangle
	Prediction Prediction
	Emotion    Emotion
	Confidence float32
}

// Label returns the predicted emotion label.
func (f Face) Label() string { return f.Emotion.String() }

// Emoji returns the emoji of the predicted emotion.
func (f Face) Emoji() string { return f.Emotion.Emoji() }

// Caption is the text drawn over the face on the annotated frame.
func (f Face) Caption() string {
	return Caption(f.Emotion, f.Confidence)
}

// Heading is the per-face caption shown on the interactive page.
func (f Face) Heading() string {
	return fmt.Sprintf("%s %s (%s)", f.Emoji(), f.Label(), FormatConfidence(f.Confidence))
}

// ConsoleLine is the line printed for each face by the continuous and batch surfaces.
func (f Face) ConsoleLine() string {
	return fmt.Sprintf("Detected: %s %s (%s)", f.Label(), f.Emoji(), FormatConfidence(f.Confidence))
}

// Caption returns the overlay text of an emotion, e.g. "Happy (82.3%)".
func Caption(e Emotion, confidence float32) string {
	return fmt.Sprintf("%s (%s)", e, FormatConfidence(confidence))
}
