package cv

import (
	"fmt"
	"image"
	"strconv"

	"github.com/esimov/facemood"
	"gocv.io/x/gocv"
)

// Camera is a frame source reading from a video capture device, file or stream URL.
type Camera struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

var _ facemood.FrameSource = (*Camera)(nil)

// OpenCamera opens the capture device. A numeric device is used as a camera index.
func OpenCamera(device string) (*Camera, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if id, convErr := strconv.Atoi(device); convErr == nil {
		capture, err = gocv.OpenVideoCapture(id)
	} else {
		capture, err = gocv.OpenVideoCapture(device)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening video capture device %v: %w", device, err)
	}
	return &Camera{capture: capture, frame: gocv.NewMat()}, nil
}

// Read grabs the next frame. A device without frames reports facemood.ErrEndOfStream.
func (c *Camera) Read() (*image.NRGBA, error) {
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, facemood.ErrEndOfStream
	}
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return facemood.ToNRGBA(img), nil
}

// Close releases the capture device.
func (c *Camera) Close() error {
	c.frame.Close()
	return c.capture.Close()
}
