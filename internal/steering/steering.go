// Package steering derives a lateral steering intent from lane detections.
package steering

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/lane-pilot/internal/config"
	"github.com/ironsheep/lane-pilot/internal/detection"
)

// Intent is the lateral direction suggested by the lane markings.
type Intent int

const (
	Straight Intent = iota
	Left
	Right
)

func (i Intent) String() string {
	switch i {
	case Straight:
		return "straight"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

// MarshalText encodes the intent as its name.
func (i Intent) MarshalText() ([]byte, error) {
	switch i {
	case Straight, Left, Right:
		return []byte(i.String()), nil
	}
	return nil, fmt.Errorf("unknown steering intent %d", int(i))
}

// UnmarshalText parses "straight", "left" or "right".
func (i *Intent) UnmarshalText(text []byte) error {
	switch string(text) {
	case "straight":
		*i = Straight
	case "left":
		*i = Left
	case "right":
		*i = Right
	default:
		return fmt.Errorf("unknown steering intent %q", text)
	}
	return nil
}

// Heuristic compares the mean lane midpoint with the frame center.
type Heuristic struct {
	LaneClass         int
	MinLaneConfidence float64
	DeadBandFraction  float64
}

// New copies the steering settings out of cfg.
func New(cfg config.Config) Heuristic {
	return Heuristic{
		LaneClass:         cfg.LaneClass,
		MinLaneConfidence: cfg.MinLaneConfidence,
		DeadBandFraction:  cfg.DeadBandFraction,
	}
}

// LaneCenter returns the mean horizontal midpoint of the lane boxes, and
// false when there are none.
func (h Heuristic) LaneCenter(boxes []detection.Box) (float64, bool) {
	lanes := detection.OfClass(boxes, h.LaneClass, h.MinLaneConfidence)
	if len(lanes) == 0 {
		return 0, false
	}
	xs := make([]float64, len(lanes))
	for i, b := range lanes {
		xs[i] = b.CenterX()
	}
	return stat.Mean(xs, nil), true
}

// Decide returns the intent for a frame of the given pixel width. The dead
// band around width/2 is exclusive at both edges: a lane center exactly on
// the edge steers straight. No lane boxes means straight.
func (h Heuristic) Decide(boxes []detection.Box, width int) Intent {
	avg, ok := h.LaneCenter(boxes)
	if !ok {
		return Straight
	}

	center := float64(width) / 2
	band := float64(width) * h.DeadBandFraction
	switch {
	case avg < center-band:
		return Left
	case avg > center+band:
		return Right
	default:
		return Straight
	}
}
