package main

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/esimov/facemood/cv"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("FACEMOOD_TEST_VALUE", "custom")
	assert.Equal(t, "custom", envOr("FACEMOOD_TEST_VALUE", "fallback"))

	t.Setenv("FACEMOOD_TEST_VALUE", "")
	assert.Equal(t, "fallback", envOr("FACEMOOD_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", envOr("FACEMOOD_TEST_UNSET", "fallback"))
}

func TestOptions_CascadePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", cv.DefaultCascade), (&Options{Locator: locatorHaar}).cascadePath())
	assert.Equal(t, pigoCascade, (&Options{Locator: locatorPigo}).cascadePath())
	assert.Equal(t, "custom.xml", (&Options{Locator: locatorHaar, Cascade: "custom.xml"}).cascadePath())
}

func TestRootCmd_Flags(t *testing.T) {
	t.Setenv("FACEMOOD_MODEL", "models/emotion.onnx")
	t.Setenv("FACEMOOD_ADDR", ":9000")

	root := newRootCmd(newSession())

	model, err := root.PersistentFlags().GetString("model")
	require.NoError(t, err)
	assert.Equal(t, "models/emotion.onnx", model)

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	addr, err := serve.Flags().GetString("addr")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)

	for _, name := range []string{"live", "detect"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSession_UnknownLocator(t *testing.T) {
	s := &session{opts: &Options{Locator: "dlib"}}
	_, err := s.loadLocator()
	assert.EqualError(t, err, `unknown face detector "dlib", use haar or pigo`)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRun_ReleasesHandlesOnFailure(t *testing.T) {
	var order []string
	s := newSession()
	s.closers = []io.Closer{
		closerFunc(func() error { order = append(order, "cascade"); return nil }),
		closerFunc(func() error { order = append(order, "net"); return nil }),
	}
	cmd := &cobra.Command{
		Use:           "failing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return errors.New("camera unavailable")
		},
	}
	cmd.SetArgs([]string{})

	err := run(context.Background(), cmd, s)
	assert.EqualError(t, err, "camera unavailable")
	assert.Equal(t, []string{"net", "cascade"}, order)
	assert.Empty(t, s.closers)
}
