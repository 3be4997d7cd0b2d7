package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
)

// FrameDetections is one line of a detections file.
type FrameDetections struct {
	Frame int   `json:"frame"`
	Boxes []Box `json:"boxes"`
}

// Recorded replays detections produced offline. Frames missing from the
// recording have no boxes.
type Recorded struct {
	frames map[int][]Box
}

// NewRecorded builds a Recorded model from in-memory detections. Later
// entries for the same frame replace earlier ones.
func NewRecorded(entries []FrameDetections) *Recorded {
	frames := make(map[int][]Box, len(entries))
	for _, e := range entries {
		frames[e.Frame] = append([]Box(nil), e.Boxes...)
	}
	return &Recorded{frames: frames}
}

// LoadRecorded reads a JSON-lines detections file:
//
//	{"frame":0,"boxes":[{"x1":410,"y1":300,"x2":470,"y2":700,"class":2,"confidence":0.91}]}
//	{"frame":1,"boxes":[]}
func LoadRecorded(path string) (*Recorded, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open detections file: %w", err)
	}
	defer f.Close()

	entries, err := ReadFrameDetections(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewRecorded(entries), nil
}

// ReadFrameDetections decodes a stream of FrameDetections values.
func ReadFrameDetections(r io.Reader) ([]FrameDetections, error) {
	dec := json.NewDecoder(r)
	var entries []FrameDetections
	for {
		var e FrameDetections
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(entries)+1, err)
		}
		if e.Frame < 0 {
			return nil, fmt.Errorf("entry %d: negative frame index %d", len(entries)+1, e.Frame)
		}
		entries = append(entries, e)
	}
}

// Frames returns the number of frames with recorded detections.
func (r *Recorded) Frames() int {
	return len(r.frames)
}

// Detect returns a copy of the boxes recorded for index.
func (r *Recorded) Detect(_ context.Context, index int, _ image.Image) ([]Box, error) {
	return append([]Box{}, r.frames[index]...), nil
}
