package main

import (
	"errors"

	"gioui.org/app"
	"github.com/esimov/facemood"
	"github.com/spf13/cobra"
)

func newDetectCmd(s *session) *cobra.Command {
	var (
		ops     facemood.Ops
		preview bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Annotate an image, a directory or a piped image",
		Example: `  facemood detect --in face.jpg --out annotated.jpg
  facemood detect --in photos/ --out annotated/
  cat face.jpg | facemood detect > annotated.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := facemood.NewExecutor(s.det)
			exec.Log = s.log
			exec.Quiet = quiet || ops.Dst == facemood.PipeName

			if !preview {
				return exec.Execute(&ops)
			}

			win := facemood.NewPreview("🧠 facemood", facemood.ChartWidth, facemood.ChartHeight*2, s.log)
			errc := make(chan error, 1)
			go func() {
				errc <- win.Run()
			}()
			mainThread <- app.Main

			exec.Sink = win
			err := exec.Execute(&ops)
			if errors.Is(err, facemood.ErrPreviewClosed) {
				return nil
			}
			if err != nil {
				return err
			}
			// Keep the window open until the user closes it.
			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&ops.Src, "in", facemood.PipeName, "Source image, directory or URL")
	cmd.Flags().StringVar(&ops.Dst, "out", facemood.PipeName, "Destination image or directory")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show the annotated image and its chart in a window")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress indicators")
	return cmd
}
