package main

import (
	"context"

	"github.com/esimov/facemood"
	"github.com/esimov/facemood/cv"
	"github.com/spf13/cobra"
)

func newLiveCmd(s *session) *cobra.Command {
	var device, title string

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Detect emotions on the webcam stream, press q to quit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			cam, err := cv.OpenCamera(device)
			if err != nil {
				return err
			}
			win := cv.NewWindow(title, cancel, s.log)
			defer win.Close()

			loop := facemood.NewCaptureLoop(cam, s.det, win)
			loop.Log = s.log
			return loop.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&device, "device", envOr("FACEMOOD_DEVICE", "0"), "Camera index or video stream URL")
	cmd.Flags().StringVar(&title, "window", facemood.WindowTitle, "Window title")
	return cmd
}
