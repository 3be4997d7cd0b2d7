//go:build gocv

package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLO runs a YOLOv8 ONNX network through OpenCV's DNN module.
type YOLO struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
}

// NewYOLO loads the network at cfg.ModelPath.
func NewYOLO(cfg YOLOConfig) (*YOLO, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLO{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect runs one forward pass over img. Box corners are scaled back to
// frame pixels.
func (y *YOLO) Detect(ctx context.Context, _ int, img image.Image) ([]Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, y.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	return y.parse(output, float32(mat.Cols()), float32(mat.Rows())), nil
}

// parse decodes the [1, 4+classes, anchors] YOLOv8 output and applies
// non-maximum suppression.
func (y *YOLO) parse(output gocv.Mat, imgW, imgH float32) []Box {
	anchors := output.Cols()
	rows := output.Rows()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return []Box{}
	}

	var rects []image.Rectangle
	var scores []float32
	var classes []int
	for i := 0; i < anchors; i++ {
		best, class := float32(0), 0
		for c := 4; c < rows; c++ {
			if s := data[c*anchors+i]; s > best {
				best, class = s, c-4
			}
		}
		if best < y.config.ConfidenceThresh {
			continue
		}

		cx, cy := data[i], data[anchors+i]
		w, h := data[2*anchors+i], data[3*anchors+i]
		sx := imgW / float32(y.config.InputWidth)
		sy := imgH / float32(y.config.InputHeight)
		rects = append(rects, image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		))
		scores = append(scores, best)
		classes = append(classes, class)
	}

	boxes := make([]Box, 0, len(rects))
	if len(rects) == 0 {
		return boxes
	}
	for _, idx := range gocv.NMSBoxes(rects, scores, y.config.ConfidenceThresh, y.config.NMSThresh) {
		r := rects[idx]
		boxes = append(boxes, Box{
			X1:         float64(r.Min.X),
			Y1:         float64(r.Min.Y),
			X2:         float64(r.Max.X),
			Y2:         float64(r.Max.Y),
			Class:      classes[idx],
			Label:      ClassName(classes[idx]),
			Confidence: float64(scores[idx]),
		})
	}
	return boxes
}

// Close releases the network.
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.net.Close()
}
