package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ironsheep/lane-pilot/internal/hazard"
)

// StreamInfo describes a frame source.
type StreamInfo struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
	Frames int     `json:"frames"` // 0 when unknown
}

// FrameSource yields frames in order. Next returns io.EOF after the last
// frame.
type FrameSource interface {
	Info() StreamInfo
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Sink consumes results in frame order. Frame and Result are read-only.
type Sink interface {
	Write(ctx context.Context, frame Frame, result Result) error
	Close() error
}

// MultiSink fans each result out to several sinks in order.
type MultiSink []Sink

// Write stops at the first failing sink.
func (m MultiSink) Write(ctx context.Context, frame Frame, result Result) error {
	for _, s := range m {
		if err := s.Write(ctx, frame, result); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONLSink writes one JSON Result per line. Boxes and contours are left
// out unless Verbose is set.
type JSONLSink struct {
	Verbose bool

	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// NewJSONLSink writes to w. If w is an io.Closer, Close closes it.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Write encodes result.
func (s *JSONLSink) Write(_ context.Context, _ Frame, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Verbose {
		result = result.Brief()
	}
	if err := s.enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write decision for frame %d: %w", result.Frame, err)
	}
	return nil
}

// Close closes the underlying writer when it is closable.
func (s *JSONLSink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// Brief returns a copy of r without boxes and region contours.
func (r Result) Brief() Result {
	out := r
	out.Boxes = nil
	if len(r.Hazard.Regions) > 0 {
		regions := make([]hazard.Region, len(r.Hazard.Regions))
		copy(regions, r.Hazard.Regions)
		for i := range regions {
			regions[i].Contour = nil
		}
		out.Hazard.Regions = regions
	}
	return out
}
