package utils

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const spinnerFrames = `⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏`

// Spinner is an animated progress indicator printed after a status badge,
// e.g. "🧠 FACEMOOD ⇢ detecting faces... ⠹". It ends with a success or failure line.
type Spinner struct {
	mu         sync.Mutex
	delay      time.Duration
	writer     io.Writer
	badge      string
	message    string
	lastOutput string
	hideCursor bool

	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a progress indicator writing to stderr.
func NewSpinner(badge, msg string, d time.Duration, hideCursor bool) *Spinner {
	return &Spinner{
		delay:      d,
		writer:     os.Stderr,
		badge:      badge,
		message:    msg,
		hideCursor: hideCursor,
	}
}

// SetWriter sets the output of the progress indicator.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start animates the indicator until one of the stop methods is called.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.writer, "\033[?25l")
	}
	go s.animate(s.stop, s.done)
}

func (s *Spinner) animate(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	prefix := Status(s.badge, s.message, DefaultMessage)
	for {
		for _, r := range spinnerFrames {
			s.mu.Lock()
			s.clear()
			s.lastOutput = fmt.Sprintf("%s %s", prefix, DecorateText(string(r), SuccessMessage))
			fmt.Fprint(s.writer, s.lastOutput)
			s.mu.Unlock()

			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}
}

// Succeed stops the indicator and prints the message marked as successful.
func (s *Spinner) Succeed(msg string) {
	s.finish(Status(s.badge, "⇢ "+DecorateText(msg+" ✔", SuccessMessage), DefaultMessage))
}

// Fail stops the indicator and prints the message marked as failed.
func (s *Spinner) Fail(msg string) {
	s.finish(Status(s.badge, msg+" "+DecorateText("✘", ErrorMessage), DefaultMessage))
}

// Stop stops the indicator without printing anything.
func (s *Spinner) Stop() {
	s.finish("")
}

// finish waits for the animation to end, so nothing is written after it returns.
func (s *Spinner) finish(line string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.restoreCursor()
	if line != "" {
		fmt.Fprintln(s.writer, line)
	}
}

// RestoreCursor makes the cursor visible again, e.g. after an interrupt.
func (s *Spinner) RestoreCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreCursor()
}

func (s *Spinner) restoreCursor() {
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.writer, "\033[?25h")
	}
}

// clear deletes the last printed line. Caller must hold the lock.
func (s *Spinner) clear() {
	if s.lastOutput == "" {
		return
	}
	if runtime.GOOS == "windows" {
		n := utf8.RuneCountInString(s.lastOutput)
		fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", n)+"\r")
	} else {
		fmt.Fprint(s.writer, "\r\033[K")
	}
	s.lastOutput = ""
}
