package facemood

import (
	"bytes"
	"encoding/binary"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stumpCascade packs a cascade with a single depth one tree. Its only node compares
// the window center with itself, so every window scores the same leaf value.
func stumpCascade(t *testing.T, leaf float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 8)) // header
	for _, v := range []any{
		uint32(1), // tree depth
		uint32(1), // number of trees
		[]int8{0, 0, 0, 0},
		[]float32{-1, leaf},
		float32(0), // threshold
	} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	return buf.Bytes()
}

func TestPigo_ShortCascade(t *testing.T) {
	for _, data := range [][]byte{nil, {}, make([]byte, 15)} {
		loc, err := NewPigoLocator(data)
		assert.ErrorIs(t, err, ErrAssetLoad)
		assert.Nil(t, loc)
	}
}

func TestPigo_MissingCascadeFile(t *testing.T) {
	loc, err := LoadPigo(filepath.Join(t.TempDir(), "facefinder"))
	assert.ErrorIs(t, err, ErrAssetLoad)
	assert.Nil(t, loc)
}

func TestPigo_RejectingCascade(t *testing.T) {
	loc, err := NewPigoLocator(stumpCascade(t, -1))
	require.NoError(t, err)

	gray := Grayscale(newFrame(96, 96, midGray))
	assert.Empty(t, loc.Locate(gray, DefaultDetectParams()))
}

func TestPigo_AcceptingCascade(t *testing.T) {
	loc, err := NewPigoLocator(stumpCascade(t, 10))
	require.NoError(t, err)

	gray := Grayscale(newFrame(96, 96, midGray))
	rects := loc.Locate(gray, DefaultDetectParams())
	require.NotEmpty(t, rects)

	bounds := gray.Bounds()
	for _, r := range rects {
		assert.False(t, r.Empty())
		assert.GreaterOrEqual(t, r.Dx(), pigoMinSize, "region %v", r)
		assert.True(t, r.Overlaps(bounds), "region %v", r)
	}

	// Clustered detections below the quality threshold are dropped.
	loc.MinQuality = 1e9
	assert.Empty(t, loc.Locate(gray, DefaultDetectParams()))
}

func TestPigo_EmptyImage(t *testing.T) {
	loc, err := NewPigoLocator(stumpCascade(t, 10))
	require.NoError(t, err)
	assert.Nil(t, loc.Locate(image.NewGray(image.Rectangle{}), DefaultDetectParams()))
}
