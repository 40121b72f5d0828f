package facemood

import (
	"image"
)

// TextKind tells the presentation layer how to render a text block.
type TextKind int

// The supported text kinds.
const (
	TextInfo TextKind = iota
	TextSuccess
	TextWarning
	TextHeading
	TextSection
)

func (k TextKind) String() string {
	switch k {
	case TextSuccess:
		return "success"
	case TextWarning:
		return "warning"
	case TextHeading:
		return "heading"
	case TextSection:
		return "section"
	default:
		return "info"
	}
}

// Messages shown by the interactive surface.
const (
	MsgSnapshotCaptured = "✅ Snapshot captured!"
	MsgNoFace           = "😕 No face detected."
	CaptionPrediction   = "🧠 Emotion Prediction"
	SectionSnapshot     = "📊 Emotion Probabilities"
	SectionUpload       = "🔍 Full Emotion Probabilities"
)

// Sink is the presentation layer: a web page, a native window or a console.
type Sink interface {
	ShowImage(img image.Image, caption string) error
	ShowText(kind TextKind, msg string) error
	ShowChart(p Prediction) error
}

// ReportInteractive renders the result of a single snapshot or uploaded image.
// When no face was detected only a warning is shown, without image and chart.
// The chart always shows the prediction of the last classified face.
func ReportInteractive(sink Sink, res *Result, snapshot bool) error {
	if snapshot {
		if err := sink.ShowText(TextSuccess, MsgSnapshotCaptured); err != nil {
			return err
		}
	}
	if res.Empty() {
		return sink.ShowText(TextWarning, MsgNoFace)
	}

	if snapshot {
		for _, f := range res.Faces {
			if err := sink.ShowText(TextHeading, f.Heading()); err != nil {
				return err
			}
		}
	}
	if err := sink.ShowImage(res.Frame, CaptionPrediction); err != nil {
		return err
	}

	section := SectionUpload
	if snapshot {
		section = SectionSnapshot
	}
	if err := sink.ShowText(TextSection, section); err != nil {
		return err
	}

	last, _ := res.Last()
	return sink.ShowChart(last.Prediction)
}
