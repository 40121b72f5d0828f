//go:build opencv

package cv

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/esimov/facemood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need the OpenCV libraries and run with `go test -tags opencv ./cv`.
// The cascade and model paths are read from FACEMOOD_CASCADE and FACEMOOD_MODEL.

func assetPath(t *testing.T, env, fallback string) string {
	t.Helper()
	path := os.Getenv(env)
	if path == "" {
		path = fallback
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not available: %v", path, err)
	}
	return path
}

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestCascade_MissingFile(t *testing.T) {
	c, err := LoadCascade(filepath.Join(t.TempDir(), DefaultCascade))
	assert.ErrorIs(t, err, facemood.ErrAssetLoad)
	assert.Nil(t, c)
}

func TestCascade_BlankImage(t *testing.T) {
	c, err := LoadCascade(assetPath(t, "FACEMOOD_CASCADE", filepath.Join("..", "data", DefaultCascade)))
	require.NoError(t, err)
	defer c.Close()

	faces := c.Locate(uniformGray(200, 200, 128), facemood.DefaultDetectParams())
	assert.Empty(t, faces)
}

func TestNet_Classify(t *testing.T) {
	n, err := LoadNet(assetPath(t, "FACEMOOD_MODEL", filepath.Join("..", "data", "emotion_model.onnx")), "")
	require.NoError(t, err)
	defer n.Close()

	frame := image.NewNRGBA(image.Rect(0, 0, 80, 80))
	for i := 0; i < len(frame.Pix); i += 4 {
		frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2], frame.Pix[i+3] = 128, 128, 128, 255
	}
	patch, err := facemood.NewPatch(frame, frame.Bounds())
	require.NoError(t, err)

	scores, err := n.Classify(patch)
	require.NoError(t, err)
	require.Len(t, scores, facemood.NumEmotions)
	assert.NoError(t, facemood.Prediction(scores).Validate())
}

func TestNet_RejectsShortPatch(t *testing.T) {
	n := &Net{}
	_, err := n.Classify(&facemood.Patch{Pix: make([]float32, 10)})
	assert.EqualError(t, err, "invalid patch size: 10")
}

func TestCamera_MissingDevice(t *testing.T) {
	cam, err := OpenCamera(filepath.Join(t.TempDir(), "missing.avi"))
	assert.Error(t, err)
	assert.Nil(t, cam)
}
