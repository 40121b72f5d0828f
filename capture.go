package facemood

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// FrameSource provides the frames of a live video stream.
type FrameSource interface {
	// Read returns the next frame. Any error ends the stream.
	Read() (*image.NRGBA, error)
	Close() error
}

// LoopState is the state of a capture loop.
type LoopState int32

// A capture loop is running until it gets stopped. It never runs again afterwards.
const (
	Running LoopState = iota
	Stopped
)

func (s LoopState) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "STOPPED"
}

var (
	// ErrEndOfStream is returned by frame sources without more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrLoopStopped is returned when running a capture loop which has already been stopped.
	ErrLoopStopped = errors.New("capture loop already stopped")
)

// WindowTitle is the caption of the frames shown by the capture loop.
const WindowTitle = "🎥 Live Emotion Detection - Press Q to Quit"

// CaptureLoop pulls frames from a source, runs them through the detector
// and shows the annotated frames on the sink. It owns the frame source.
type CaptureLoop struct {
	Source   FrameSource
	Detector *Detector
	Sink     Sink
	// Out receives one line per detected face.
	Out io.Writer
	Log logrus.FieldLogger

	state   atomic.Int32
	release sync.Once
}

// NewCaptureLoop creates a new capture loop in running state.
func NewCaptureLoop(src FrameSource, det *Detector, sink Sink) *CaptureLoop {
	return &CaptureLoop{
		Source:   src,
		Detector: det,
		Sink:     sink,
		Out:      os.Stdout,
		Log:      logrus.StandardLogger(),
	}
}

// State returns the current state of the loop.
func (c *CaptureLoop) State() LoopState {
	return LoopState(c.state.Load())
}

// Run processes frames until the context is cancelled or the source fails.
// Both cases are a normal stop and return nil. Frames failing in the pipeline
// are shown without annotations. The frame source is released exactly once when Run returns.
func (c *CaptureLoop) Run(ctx context.Context) error {
	if c.State() == Stopped {
		return ErrLoopStopped
	}
	defer c.stop()

	out := c.Out
	if out == nil {
		out = io.Discard
	}
	for {
		select {
		case <-ctx.Done():
			c.logger().Debug("capture loop cancelled")
			return nil
		default:
		}

		frame, err := c.Source.Read()
		if err != nil {
			c.logger().WithError(err).Debug("frame source ended")
			return nil
		}

		// A failed frame is shown unannotated, the sink polls the quit key on every image.
		res, err := c.Detector.Process(frame)
		if err != nil {
			c.logger().WithError(err).Warn("frame not annotated")
		} else {
			for _, f := range res.Faces {
				fmt.Fprintln(out, f.ConsoleLine())
			}
		}
		if err := c.Sink.ShowImage(frame, WindowTitle); err != nil {
			return fmt.Errorf("showing frame: %w", err)
		}
	}
}

// stop moves the loop into the stopped state and releases the frame source.
func (c *CaptureLoop) stop() {
	c.state.Store(int32(Stopped))
	c.release.Do(func() {
		if err := c.Source.Close(); err != nil {
			c.logger().WithError(err).Warn("could not release the frame source")
		}
	})
}

func (c *CaptureLoop) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
