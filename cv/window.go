package cv

import (
	"context"
	"image"
	"strings"

	"github.com/esimov/facemood"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Window is a native OpenCV window used as the sink of the live capture loop.
// Pressing q in the window cancels the loop.
type Window struct {
	window *gocv.Window
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

var _ facemood.Sink = (*Window)(nil)

// NewWindow opens a named window. The cancel function is called on the quit key.
func NewWindow(title string, cancel context.CancelFunc, log logrus.FieldLogger) *Window {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Window{
		window: gocv.NewWindow(title),
		cancel: cancel,
		log:    log,
	}
}

// ShowImage displays the image and polls the keyboard.
func (w *Window) ShowImage(img image.Image, caption string) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	w.window.IMShow(mat)
	if key := w.window.WaitKey(1) & 0xFF; key == 'q' || key == 'Q' {
		w.log.Debug("quit key pressed")
		if w.cancel != nil {
			w.cancel()
		}
	}
	return nil
}

// ShowText logs the message, the window has no text area.
func (w *Window) ShowText(kind facemood.TextKind, msg string) error {
	w.log.WithField("kind", kind).Info(msg)
	return nil
}

// ShowChart logs the probability of every emotion.
func (w *Window) ShowChart(p facemood.Prediction) error {
	fields := logrus.Fields{}
	for i, label := range facemood.Labels() {
		if i < len(p) {
			fields[strings.ToLower(label)] = facemood.FormatConfidence(p[i])
		}
	}
	w.log.WithFields(fields).Info("emotion probabilities")
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
