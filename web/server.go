package web

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/esimov/facemood"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// MaxUploadSize is the largest accepted request body.
const MaxUploadSize = 10 * 1024 * 1024

// ServerOption configures the server.
type ServerOption func(*Server) error

// Server is the interactive web surface. It serves the page with the mode selector,
// the form endpoint rendering the annotated result and a JSON API.
type Server struct {
	engine    *fiber.App
	log       *logrus.Logger
	validator *validator.Validate
	detector  *facemood.Detector

	// mu serializes the pipeline calls, the detector handles are not safe for concurrent use.
	mu sync.Mutex
}

// NewFiber creates the fiber app used by the server.
func NewFiber() *fiber.App {
	return fiber.New(
		fiber.Config{
			AppName:      "facemood",
			BodyLimit:    MaxUploadSize,
			JSONEncoder:  jsoniter.Marshal,
			JSONDecoder:  jsoniter.Unmarshal,
			ErrorHandler: errorHandler,
		})
}

// NewServer creates the server and registers its routes.
func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.detector == nil {
		return nil, errors.New("detector is required")
	}
	if server.engine == nil {
		server.engine = NewFiber()
	}
	if server.log == nil {
		server.log = logrus.StandardLogger()
	}
	if server.validator == nil {
		server.validator = validator.New()
	}

	server.routes()
	return server, nil
}

// WithFiber sets the fiber app.
func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

// WithValidator sets the form validator.
func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDetector sets the emotion detector.
func WithDetector(detector *facemood.Detector) ServerOption {
	return func(s *Server) error {
		if detector == nil {
			return errors.New("nil detector")
		}
		s.detector = detector
		return nil
	}
}

func (s *Server) routes() {
	s.engine.Use(NewRequestIDMiddleware())
	s.engine.Use(NewLoggingMiddleware(s.log))

	s.engine.Get("/", s.index)
	s.engine.Post("/detect", s.detectPage)
	s.engine.Get("/healthz", s.health)

	api := s.engine.Group("/api/v1")
	api.Post("/detect", s.detectJSON)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.engine
}

// Start listens on the address until the server gets shut down.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("starting the web server")
	return s.engine.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.engine.Shutdown()
}

// process runs the detector on the frame. Only one frame is processed at a time.
func (s *Server) process(frame *image.NRGBA) (*facemood.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.Process(frame)
}
