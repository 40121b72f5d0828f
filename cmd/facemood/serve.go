package main

import (
	"github.com/esimov/facemood/web"
	"github.com/spf13/cobra"
)

func newServeCmd(s *session) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interactive web page",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := web.NewServer(
				web.WithDetector(s.det),
				web.WithLogger(s.log),
			)
			if err != nil {
				return err
			}

			errc := make(chan error, 1)
			go func() {
				errc <- srv.Start(addr)
			}()
			s.log.WithField("addr", addr).Info("server started")

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
				s.log.Info("shutting down the server")
				return srv.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("FACEMOOD_ADDR", ":8080"), "Listen address")
	return cmd
}
