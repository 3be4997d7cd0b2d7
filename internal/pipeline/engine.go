package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/lane-pilot/internal/config"
	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/steering"
)

// Frame is one decoded video frame. Processing never writes to Image.
type Frame struct {
	Index int
	Image image.Image

	// Err is set by a source that could not decode this frame. The runner
	// skips the frame and logs Err as the cause.
	Err error
}

// Result is everything decided about one frame.
type Result struct {
	// Frame is the index of the source frame.
	Frame int `json:"frame"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Hazard holds the potholes found in the frame.
	Hazard hazard.Report `json:"hazard"`

	// Boxes are the raw model detections, all classes.
	Boxes []detection.Box `json:"boxes,omitempty"`

	// Intent is the steering heuristic's suggestion before fusion.
	Intent steering.Intent `json:"intent"`

	// Command is the fused driving command.
	Command decision.Command `json:"command"`
}

// Engine composes the per-frame stages.
type Engine struct {
	cfg      config.Config
	detector *hazard.Detector
	steering steering.Heuristic
}

// NewEngine builds an engine. A nil seg selects the build's default
// segmenter.
func NewEngine(cfg config.Config, seg hazard.Segmenter) *Engine {
	return &Engine{
		cfg:      cfg,
		detector: hazard.NewDetector(cfg, seg),
		steering: steering.New(cfg),
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Process decides the command for frame given the model's boxes.
// It fails with hazard.ErrInvalidFrame for nil or empty frames.
func (e *Engine) Process(frame Frame, boxes []detection.Box) (Result, error) {
	report, err := e.detector.Detect(frame.Image)
	if err != nil {
		return Result{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	if boxes == nil {
		boxes = []detection.Box{}
	}
	size := frame.Image.Bounds().Size()
	intent := e.steering.Decide(boxes, size.X)

	return Result{
		Frame:   frame.Index,
		Width:   size.X,
		Height:  size.Y,
		Hazard:  report,
		Boxes:   boxes,
		Intent:  intent,
		Command: decision.Decide(report, intent, e.cfg.BrakeDistanceM),
	}, nil
}
