package training

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"
)

// FeatureExtractor maps a decoded image to a fixed-length feature vector.
// The backbone behind it is frozen; only the head on top of it is fitted.
type FeatureExtractor interface {
	Features(img image.Image) ([]float64, error)
	Dim() int
}

// ImageNet channel statistics used to normalize backbone input.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ONNXExtractor runs a frozen ONNX backbone to produce embeddings. It holds
// a single session with persistent input/output tensors, so it must not be
// shared across goroutines.
type ONNXExtractor struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	size    int
	dim     int
}

// NewONNXExtractor loads the backbone at modelPath. inputSize is the square
// side length the backbone expects; featureDim is the embedding width it
// emits.
func NewONNXExtractor(modelPath string, inputSize, featureDim int) (*ONNXExtractor, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(1, 3, int64(inputSize), int64(inputSize))
	outputShape := ort.NewShape(1, int64(featureDim))

	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXExtractor{
		session: session,
		input:   input,
		output:  output,
		size:    inputSize,
		dim:     featureDim,
	}, nil
}

// Dim returns the embedding width.
func (e *ONNXExtractor) Dim() int { return e.dim }

// Features resizes the image to the backbone's input size, normalizes it to
// CHW float32, and runs one inference pass.
func (e *ONNXExtractor) Features(img image.Image) ([]float64, error) {
	resized := resize.Resize(uint(e.size), uint(e.size), img, resize.Bilinear)

	data := e.input.GetData()
	plane := e.size * e.size
	for y := 0; y < e.size; y++ {
		for x := 0; x < e.size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			idx := y*e.size + x
			data[0*plane+idx] = (float32(r>>8)/255 - imagenetMean[0]) / imagenetStd[0]
			data[1*plane+idx] = (float32(g>>8)/255 - imagenetMean[1]) / imagenetStd[1]
			data[2*plane+idx] = (float32(b>>8)/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("backbone inference failed: %w", err)
	}

	out := e.output.GetData()
	features := make([]float64, len(out))
	for i, v := range out {
		features[i] = float64(v)
	}
	return features, nil
}

// Close releases the session and tensors.
func (e *ONNXExtractor) Close() {
	if e.input != nil {
		e.input.Destroy()
	}
	if e.output != nil {
		e.output.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
	ort.DestroyEnvironment()
}
