package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/esimov/facemood/utils"
	"github.com/spf13/cobra"
)

const HelpBanner = `
┌─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┌─┐┌┬┐
├┤ ├─┤│  ├┤ ││││ ││ │ ││
└  ┴ ┴└─┘└─┘┴ ┴└─┘└─┘─┴┘

Face detection and emotion recognition.
    Version: %s
`

// Version indicates the current build version.
var Version string

// mainThread receives the functions which have to run on the main goroutine.
var mainThread = make(chan func())

func main() {
	go func() {
		os.Exit(execute())
	}()

	// Gio requires the window event loop to be started from the main goroutine.
	for fn := range mainThread {
		fn()
	}
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession()
	if err := run(ctx, newRootCmd(s), s); err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		return 1
	}
	return 0
}

// run executes the command tree and releases the loaded handles whatever the outcome.
func run(ctx context.Context, root *cobra.Command, s *session) error {
	defer s.close()
	return root.ExecuteContext(ctx)
}
