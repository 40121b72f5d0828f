package facemood

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esimov/facemood/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// statusBadge prefixes the progress messages of the batch mode.
const statusBadge = "🧠 FACEMOOD"

// PipeName is the file name that indicates stdin/stdout is being used.
const PipeName = "-"

// validExtensions are the image files picked up from a source directory.
var validExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// outputExtensions are the image formats the annotated images can be encoded to.
var outputExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// Ops describes a batch detection: where the images come from and where the annotated images go.
type Ops struct {
	Src, Dst string
}

// Executor runs the detector over image files, directories, pipes or URLs.
type Executor struct {
	Detector *Detector
	// Sink optionally receives every annotated image together with its probability chart.
	Sink Sink
	// Out receives the console lines of the detected faces.
	Out io.Writer
	Log logrus.FieldLogger

	// Quiet disables the spinner and the progress bar.
	Quiet bool
}

// NewExecutor creates an executor writing its console output to stderr,
// keeping stdout free for piped images.
func NewExecutor(det *Detector) *Executor {
	return &Executor{
		Detector: det,
		Out:      os.Stderr,
		Log:      logrus.StandardLogger(),
	}
}

// Execute runs the detection described by the operation. A directory source
// is walked recursively and every image found is annotated into the destination directory.
func (e *Executor) Execute(op *Ops) error {
	var (
		fs  os.FileInfo
		err error
	)
	src := op.Src

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(src) {
		tmp, err := utils.DownloadImage(src)
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		defer os.Remove(tmp.Name())
		if err := tmp.Close(); err != nil {
			return err
		}
		src = tmp.Name()
	}

	// Check if the source is a pipe name or a regular file.
	if src == PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if op.Dst == PipeName {
			return errors.New("a directory source needs a destination directory")
		}
		err = e.processDir(src, op.Dst)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0: // check for regular files or pipe names
		ext := strings.ToLower(filepath.Ext(op.Dst))
		if !isValidExtension(ext, outputExtensions) && op.Dst != PipeName {
			return fmt.Errorf("%v file type not supported", ext)
		}
		err = e.processFile(src, op.Dst)
	default:
		err = fmt.Errorf("unsupported source: %s", op.Src)
	}
	if err != nil {
		return err
	}

	e.logger().WithField("elapsed", utils.FormatTime(time.Since(now))).Info("detection finished")
	return nil
}

// processDir annotates the images of the source tree one by one.
func (e *Executor) processDir(src, dst string) error {
	if _, err := os.Stat(dst); err != nil {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}

	paths, err := walkDir(src, validExtensions)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !e.Quiet {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("🧠 Detecting emotions"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	var failed int
	for _, path := range paths {
		out := filepath.Join(dst, outputName(path))
		if err := e.detect(path, out); err != nil {
			failed++
			e.logger().WithError(err).WithField("file", path).Error("detection failed")
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(paths))
	}
	return nil
}

// processFile annotates a single image while showing a spinner.
func (e *Executor) processFile(in, out string) error {
	if e.Quiet {
		return e.detect(in, out)
	}

	spinner := utils.NewSpinner(statusBadge, "⇢ detecting faces...", time.Millisecond*100, true)
	spinner.Start()

	if err := e.detect(in, out); err != nil {
		spinner.Fail("detection failed...")
		return err
	}
	spinner.Succeed("the image has been annotated successfully")
	return nil
}

// detect decodes the source image, runs the detector and encodes the annotated image.
func (e *Executor) detect(in, out string) (err error) {
	src, dst, err := pathToFile(in, out)
	if err != nil {
		return err
	}
	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			f.Close()
		}
		if f, ok := dst.(*os.File); ok && f != os.Stdout {
			f.Close()
			// Remove the partially written image in case of an error.
			if err != nil {
				os.Remove(f.Name())
			}
		}
	}()

	frame, err := DecodeImage(src)
	if err != nil {
		return err
	}
	res, err := e.Detector.Process(frame)
	if err != nil {
		return err
	}

	if res.Empty() {
		e.logger().WithField("file", in).Info(MsgNoFace)
	}
	if e.Out != nil {
		for _, f := range res.Faces {
			fmt.Fprintln(e.Out, f.ConsoleLine())
		}
	}
	if e.Sink != nil {
		if err := ReportInteractive(e.Sink, res, false); err != nil {
			return err
		}
	}

	return EncodeImage(dst, res.Frame)
}

// pathToFile converts the source and destination paths to readable and writable files.
func pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// outputName returns the file name of the annotated image. Sources
// without a matching encoder are written as PNG.
func outputName(path string) string {
	name := filepath.Base(path)
	if isValidExtension(strings.ToLower(filepath.Ext(name)), outputExtensions) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}

// walkDir walks the source directory tree recursively and
// returns the paths of the regular files with a supported extension.
func walkDir(src string, srcExts []string) ([]string, error) {
	var paths []string
	err := filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !f.Mode().IsRegular() {
			return nil
		}
		if isValidExtension(strings.ToLower(filepath.Ext(f.Name())), srcExts) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}

func (e *Executor) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
