package cv

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/esimov/facemood"
	"gocv.io/x/gocv"
)

// Net is an emotion classifier running a pretrained network through the OpenCV DNN module.
// The model format (ONNX, TensorFlow, Caffe, Darknet) is detected from the file extension.
type Net struct {
	net gocv.Net
}

var _ facemood.Classifier = (*Net)(nil)

// LoadNet reads the network from the model file and the optional config file.
func LoadNet(model, config string) (*Net, error) {
	net := gocv.ReadNet(model, config)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("%w: unable to read the emotion model %s", facemood.ErrAssetLoad, model)
	}
	return &Net{net: net}, nil
}

// Classify feeds the patch to the network and returns the scores of its single output.
// With one channel the (1, 1, 64, 64) blob has the same layout as a (1, 64, 64, 1) tensor.
func (n *Net) Classify(p *facemood.Patch) ([]float32, error) {
	tensor := p.Tensor()
	if len(tensor) != facemood.PatchSize*facemood.PatchSize {
		return nil, fmt.Errorf("invalid patch size: %d", len(tensor))
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&tensor[0])), len(tensor)*4)

	mat, err := gocv.NewMatFromBytes(facemood.PatchSize, facemood.PatchSize, gocv.MatTypeCV32F, data)
	if err != nil {
		return nil, fmt.Errorf("creating input mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(facemood.PatchSize, facemood.PatchSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	n.net.SetInput(blob, "")
	out := n.net.Forward("")
	defer out.Close()

	scores, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading network output: %w", err)
	}
	// The data is owned by the output mat.
	res := make([]float32, len(scores))
	copy(res, scores)
	return res, nil
}

// Close releases the network.
func (n *Net) Close() error {
	return n.net.Close()
}
