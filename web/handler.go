package web

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/esimov/facemood"
	"github.com/gofiber/fiber/v2"
)

// acceptedExtensions are the upload types accepted by the interactive surface.
var acceptedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

type detectForm struct {
	Mode string `form:"mode" validate:"required,oneof=snapshot upload"`
}

type modeQuery struct {
	Mode string `query:"mode" validate:"omitempty,oneof=snapshot upload"`
}

type rectResponse struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type faceResponse struct {
	Region        rectResponse       `json:"region"`
	Label         string             `json:"label"`
	Emoji         string             `json:"emoji"`
	Confidence    float32            `json:"confidence"`
	Caption       string             `json:"caption"`
	Probabilities map[string]float32 `json:"probabilities"`
}

type detectResponse struct {
	RequestID string         `json:"request_id"`
	NoFace    bool           `json:"no_face"`
	Message   string         `json:"message,omitempty"`
	Faces     []faceResponse `json:"faces"`
	Image     string         `json:"image,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (s *Server) index(c *fiber.Ctx) error {
	var q modeQuery
	if err := c.QueryParser(&q); err != nil {
		return ErrInvalidMode
	}
	if err := s.validator.Struct(&q); err != nil {
		return ErrInvalidMode
	}
	if q.Mode == "" {
		q.Mode = ModeSnapshot
	}
	return s.render(c, fiber.StatusOK, NewPage(q.Mode))
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// detectPage handles the form submission and renders the annotated result.
func (s *Server) detectPage(c *fiber.Ctx) error {
	mode, res, err := s.detect(c)
	page := NewPage(mode)
	if err != nil {
		code := statusCode(err)
		if code >= fiber.StatusInternalServerError {
			s.log.WithError(err).WithField("request_id", requestID(c)).Error("detection failed")
		}
		page.Error = message(err)
		return s.render(c, code, page)
	}

	if err := facemood.ReportInteractive(page, res, mode == ModeSnapshot); err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, page)
}

// detectJSON handles the API requests.
func (s *Server) detectJSON(c *fiber.Ctx) error {
	_, res, err := s.detect(c)
	if err != nil {
		return err
	}

	resp := detectResponse{
		RequestID: requestID(c),
		NoFace:    res.Empty(),
		Faces:     make([]faceResponse, 0, len(res.Faces)),
	}
	if res.Empty() {
		resp.Message = facemood.MsgNoFace
	}
	for _, f := range res.Faces {
		resp.Faces = append(resp.Faces, newFaceResponse(f))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, res.Frame, &jpeg.Options{Quality: 90}); err != nil {
		return err
	}
	resp.Image = base64.StdEncoding.EncodeToString(buf.Bytes())

	return c.JSON(resp)
}

// detect validates the request, decodes the uploaded image and runs the detector over it.
func (s *Server) detect(c *fiber.Ctx) (string, *facemood.Result, error) {
	var form detectForm
	if err := c.BodyParser(&form); err != nil {
		return ModeUpload, nil, ErrInvalidMode
	}
	if err := s.validator.Struct(&form); err != nil {
		return ModeUpload, nil, ErrInvalidMode
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return form.Mode, nil, ErrMissingImage
	}
	frame, err := decodeUpload(fh)
	if err != nil {
		return form.Mode, nil, err
	}

	res, err := s.process(frame)
	if err != nil {
		return form.Mode, nil, err
	}
	return form.Mode, res, nil
}

// decodeUpload checks the uploaded file type and size and decodes the image.
func decodeUpload(fh *multipart.FileHeader) (*image.NRGBA, error) {
	if fh.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !acceptedExtensions[ext] {
		return nil, ErrInvalidFileType
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return facemood.DecodeImage(f)
}

func (s *Server) render(c *fiber.Ctx, code int, page *Page) error {
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(code).Send(buf.Bytes())
}

func newFaceResponse(f facemood.Face) faceResponse {
	probs := make(map[string]float32, facemood.NumEmotions)
	for i, label := range facemood.Labels() {
		probs[label] = f.Prediction[i]
	}
	return faceResponse{
		Region: rectResponse{
			X:      f.Region.Min.X,
			Y:      f.Region.Min.Y,
			Width:  f.Region.Dx(),
			Height: f.Region.Dy(),
		},
		Label:         f.Label(),
		Emoji:         f.Emoji(),
		Confidence:    f.Confidence,
		Caption:       f.Caption(),
		Probabilities: probs,
	}
}
