package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/esimov/facemood"
	"github.com/esimov/facemood/cv"
	"github.com/esimov/facemood/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Supported face locators.
const (
	locatorHaar = "haar"
	locatorPigo = "pigo"
)

const (
	defaultModel = "data/emotion_model.onnx"
	pigoCascade  = "data/facefinder"
)

// Options holds the configuration shared by every subcommand.
type Options struct {
	Locator     string
	Cascade     string
	Model       string
	ModelConfig string
	LogLevel    string
	LogFile     string

	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
	FaceAngle    float64
}

// session holds the resources loaded once per invocation.
type session struct {
	opts    *Options
	log     *logrus.Logger
	det     *facemood.Detector
	closers []io.Closer
}

func newSession() *session {
	return &session{opts: &Options{}}
}

func newRootCmd(s *session) *cobra.Command {
	loadEnv()
	opts := s.opts

	root := &cobra.Command{
		Use:           "facemood",
		Short:         "Face detection and emotion recognition",
		Long:          fmt.Sprintf(HelpBanner, Version),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	defaults := facemood.DefaultDetectParams()
	pf := root.PersistentFlags()
	pf.StringVar(&opts.Locator, "detector", envOr("FACEMOOD_DETECTOR", locatorHaar), "Face detector: haar or pigo")
	pf.StringVar(&opts.Cascade, "cascade", envOr("FACEMOOD_CASCADE", ""), "Cascade file (default depends on the detector)")
	pf.StringVar(&opts.Model, "model", envOr("FACEMOOD_MODEL", defaultModel), "Emotion classifier model")
	pf.StringVar(&opts.ModelConfig, "model-config", "", "Optional network config file of the model")
	pf.StringVar(&opts.LogLevel, "log-level", envOr("FACEMOOD_LOG_LEVEL", "info"), "Log level")
	pf.StringVar(&opts.LogFile, "log-file", envOr("FACEMOOD_LOG_FILE", ""), "Write the logs into a rotated file")
	pf.Float64Var(&opts.ScaleFactor, "scale", defaults.ScaleFactor, "Detection window scale factor")
	pf.IntVar(&opts.MinNeighbors, "neighbors", defaults.MinNeighbors, "Minimum neighbors of a haar detection")
	pf.IntVar(&opts.MinSize, "min-size", defaults.MinSize, "Minimum face size in pixels")
	pf.Float64Var(&opts.FaceAngle, "angle", 0.0, "Plane rotated faces angle (pigo only)")

	root.AddCommand(newServeCmd(s), newLiveCmd(s), newDetectCmd(s))
	return root
}

// loadEnv reads the optional .env file of the working directory.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, utils.DecorateText("Unable to read the .env file: "+err.Error(), utils.ErrorMessage))
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// cascadePath returns the cascade file of the selected locator.
func (o *Options) cascadePath() string {
	if o.Cascade != "" {
		return o.Cascade
	}
	if o.Locator == locatorPigo {
		return pigoCascade
	}
	return filepath.Join("data", cv.DefaultCascade)
}

// open sets up the logger and loads the face locator and the emotion classifier.
// A missing or corrupt asset is fatal.
func (s *session) open() error {
	log, err := utils.NewLogger(s.opts.LogLevel, s.opts.LogFile)
	if err != nil {
		return err
	}
	s.log = log

	locator, err := s.loadLocator()
	if err != nil {
		utils.Die(os.Stderr, "Unable to load the face detector: %v\n", err)
	}
	net, err := cv.LoadNet(s.opts.Model, s.opts.ModelConfig)
	if err != nil {
		s.close()
		utils.Die(os.Stderr, "Unable to load the emotion model: %v\n", err)
	}
	s.closers = append(s.closers, net)

	s.det = facemood.NewDetector(locator, net)
	s.det.Params = facemood.DetectParams{
		ScaleFactor:  s.opts.ScaleFactor,
		MinNeighbors: s.opts.MinNeighbors,
		MinSize:      s.opts.MinSize,
	}
	s.det.Log = log

	log.WithFields(logrus.Fields{
		"detector": s.opts.Locator,
		"cascade":  s.opts.cascadePath(),
		"model":    s.opts.Model,
	}).Debug("assets loaded")
	return nil
}

func (s *session) loadLocator() (facemood.FaceLocator, error) {
	path := s.opts.cascadePath()
	switch s.opts.Locator {
	case locatorHaar:
		c, err := cv.LoadCascade(path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, c)
		return c, nil
	case locatorPigo:
		p, err := facemood.LoadPigo(path)
		if err != nil {
			return nil, err
		}
		p.Angle = s.opts.FaceAngle
		return p, nil
	default:
		return nil, fmt.Errorf("unknown face detector %q, use %s or %s", s.opts.Locator, locatorHaar, locatorPigo)
	}
}

// close releases the loaded handles in reverse order.
func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && s.log != nil {
			s.log.WithError(err).Warn("could not release the handle")
		}
	}
	s.closers = nil
}
