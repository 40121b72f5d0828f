package facemood

import (
	"errors"
	"image"
	"sync"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/esimov/facemood/utils"
	"github.com/sirupsen/logrus"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const (
	maxScreenX = 1366
	maxScreenY = 768
)

// ErrPreviewClosed is returned when showing content on a closed preview window.
var ErrPreviewClosed = errors.New("preview window closed")

var _ Sink = (*Preview)(nil)

// Preview is a Gio window showing the last annotated image and its probability chart.
// The content is received from the Sink methods, which can be called from any goroutine.
type Preview struct {
	title  string
	width  int
	height int
	log    logrus.FieldLogger

	updates chan previewUpdate
	done    chan struct{}
	once    sync.Once

	img   image.Image
	chart image.Image
}

type previewUpdate struct {
	img   image.Image
	chart image.Image
}

// NewPreview creates a preview window of the given size. The window is opened by Run.
func NewPreview(title string, width, height int, log logrus.FieldLogger) *Preview {
	if log == nil {
		log = logrus.StandardLogger()
	}
	w, h := fitScreen(width, height)
	return &Preview{
		title:   title,
		width:   w,
		height:  h,
		log:     log,
		updates: make(chan previewUpdate, 1),
		done:    make(chan struct{}),
	}
}

// fitScreen shrinks the window size to the screen size, keeping the aspect ratio.
func fitScreen(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return maxScreenX / 2, maxScreenY / 2
	}
	if width > maxScreenX || height > maxScreenY {
		wr := float64(maxScreenX) / float64(width)
		hr := float64(maxScreenY) / float64(height)
		r := utils.Min(wr, hr)
		return int(float64(width) * r), int(float64(height) * r)
	}
	return width, height
}

// ShowImage replaces the image shown in the window.
func (p *Preview) ShowImage(img image.Image, caption string) error {
	return p.send(previewUpdate{img: img})
}

// ShowText logs the message, the window has no text area.
func (p *Preview) ShowText(kind TextKind, msg string) error {
	p.log.WithField("kind", kind).Info(msg)
	return nil
}

// ShowChart renders the probability chart under the image.
func (p *Preview) ShowChart(pred Prediction) error {
	chart, err := DrawChart(pred, ChartWidth, ChartHeight)
	if err != nil {
		return err
	}
	return p.send(previewUpdate{chart: chart})
}

// Done is closed when the window gets closed.
func (p *Preview) Done() <-chan struct{} {
	return p.done
}

func (p *Preview) send(u previewUpdate) error {
	select {
	case <-p.done:
		return ErrPreviewClosed
	case p.updates <- u:
		return nil
	}
}

// Run opens the window and processes its events until the window is
// destroyed or the ESC or Q key is pressed. Gio requires app.Main
// to run on the main goroutine, so Run should be called from a separate one.
func (p *Preview) Run() error {
	w := app.NewWindow(
		app.Title(p.title),
		app.Size(unit.Dp(float32(p.width)), unit.Dp(float32(p.height))),
	)
	defer p.once.Do(func() { close(p.done) })

	var ops op.Ops
	for {
		select {
		case e := <-w.Events():
			switch e := e.(type) {
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				if p.quitRequested(gtx) {
					return nil
				}
				p.layout(gtx)
				e.Frame(gtx.Ops)
			case system.DestroyEvent:
				return e.Err
			}
		case u := <-p.updates:
			if u.img != nil {
				p.img = u.img
			}
			if u.chart != nil {
				p.chart = u.chart
			}
			w.Invalidate()
		}
	}
}

// quitRequested registers the key handler and reports whether a quit key was pressed.
func (p *Preview) quitRequested(gtx C) bool {
	quit := false
	for _, ev := range gtx.Events(p) {
		if e, ok := ev.(key.Event); ok && e.State == key.Press {
			switch e.Name {
			case key.NameEscape, "Q":
				quit = true
			}
		}
	}
	key.InputOp{Tag: p, Keys: key.Set(key.NameEscape + "|Q")}.Add(gtx.Ops)
	return quit
}

func (p *Preview) layout(gtx C) D {
	var children []layout.FlexChild
	if p.img != nil {
		src := paint.NewImageOp(p.img)
		children = append(children, layout.Flexed(2, func(gtx C) D {
			return widget.Image{Src: src, Fit: widget.Contain}.Layout(gtx)
		}))
	}
	if p.chart != nil {
		src := paint.NewImageOp(p.chart)
		children = append(children, layout.Flexed(1, func(gtx C) D {
			return widget.Image{Src: src, Fit: widget.Contain}.Layout(gtx)
		}))
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}
