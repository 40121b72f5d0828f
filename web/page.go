package web

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/esimov/facemood"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Modes of the interactive surface, as labelled in the mode selector.
const (
	ModeSnapshot = "snapshot"
	ModeUpload   = "upload"
)

// modeOption is an entry of the mode selector.
type modeOption struct {
	Value string
	Label string
}

var modeOptions = []modeOption{
	{Value: ModeSnapshot, Label: "📸 Webcam Snapshot"},
	{Value: ModeUpload, Label: "🖼️ Upload Image"},
}

// Block is a rendered piece of the result page.
type Block struct {
	Kind    string
	Text    string
	Image   template.URL
	Caption string
}

// Page is the presentation sink of the interactive surface.
// It collects the result blocks, which are then rendered as HTML.
type Page struct {
	Mode   string
	Blocks []Block
	Error  string
}

var _ facemood.Sink = (*Page)(nil)

// NewPage creates an empty page for the given input mode.
func NewPage(mode string) *Page {
	return &Page{Mode: mode}
}

// ShowImage adds the image as an embedded JPEG.
func (p *Page) ShowImage(img image.Image, caption string) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return err
	}
	p.Blocks = append(p.Blocks, Block{
		Kind:    "image",
		Image:   dataURI("image/jpeg", buf.Bytes()),
		Caption: caption,
	})
	return nil
}

// ShowText adds a text block.
func (p *Page) ShowText(kind facemood.TextKind, msg string) error {
	p.Blocks = append(p.Blocks, Block{Kind: kind.String(), Text: msg})
	return nil
}

// ShowChart adds the probability chart as an embedded PNG.
func (p *Page) ShowChart(pred facemood.Prediction) error {
	chart, err := facemood.DrawChart(pred, facemood.ChartWidth, facemood.ChartHeight)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, chart); err != nil {
		return err
	}
	p.Blocks = append(p.Blocks, Block{
		Kind:  "chart",
		Image: dataURI("image/png", buf.Bytes()),
	})
	return nil
}

// Render writes the HTML page.
func (p *Page) Render(w io.Writer) error {
	return pageTemplate.Execute(w, struct {
		*Page
		Modes    []modeOption
		Snapshot bool
	}{
		Page:     p,
		Modes:    modeOptions,
		Snapshot: p.Mode == ModeSnapshot,
	})
}

func dataURI(mime string, data []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}
