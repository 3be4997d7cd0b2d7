package detection

import (
	"context"
	"errors"
	"image"
	"strconv"
)

// ErrNoBackend is returned when a model needs a backend that was not
// compiled in.
var ErrNoBackend = errors.New("detection backend not available in this build")

// Box is one detection reported by an external model.
type Box struct {
	X1 float64 `json:"x1"` // Left edge
	Y1 float64 `json:"y1"` // Top edge
	X2 float64 `json:"x2"` // Right edge
	Y2 float64 `json:"y2"` // Bottom edge

	// Class is the model's numeric class label.
	Class int `json:"class"`

	// Label is the human-readable class name. May be empty.
	Label string `json:"label,omitempty"`

	// Confidence is the detector score in [0, 1].
	Confidence float64 `json:"confidence"`
}

// CenterX returns the horizontal midpoint of the box.
func (b Box) CenterX() float64 {
	return (b.X1 + b.X2) / 2
}

// Rectangle returns the box rounded outward to whole pixels.
func (b Box) Rectangle() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2+0.5), int(b.Y2+0.5))
}

// Name returns Label, or the COCO name for Class when Label is empty.
func (b Box) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return ClassName(b.Class)
}

// Model is an external detector queried once per frame.
type Model interface {
	// Detect returns the boxes found in img, the frame with the given index.
	// The returned slice belongs to the caller.
	Detect(ctx context.Context, index int, img image.Image) ([]Box, error)
}

// None is a Model that never detects anything.
type None struct{}

// Detect returns an empty, non-nil slice.
func (None) Detect(context.Context, int, image.Image) ([]Box, error) {
	return []Box{}, nil
}

// OfClass returns the boxes with the given class and at least minConfidence,
// in input order.
func OfClass(boxes []Box, class int, minConfidence float64) []Box {
	out := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.Class == class && b.Confidence >= minConfidence {
			out = append(out, b)
		}
	}
	return out
}

// ClassName returns the COCO name of class, or "class N" outside the table.
func ClassName(class int) string {
	if class >= 0 && class < len(COCOClasses) {
		return COCOClasses[class]
	}
	return "class " + strconv.Itoa(class)
}

// COCOClasses contains the 80 COCO class names used by stock YOLO weights.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
