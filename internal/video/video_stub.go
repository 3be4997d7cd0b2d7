//go:build !gocv

package video

import (
	"context"
	"image"

	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// Capture is unavailable without the gocv build tag.
type Capture struct{}

// Open always fails with ErrNoBackend in this build.
func Open(string) (*Capture, error) {
	return nil, ErrNoBackend
}

func (*Capture) Info() pipeline.StreamInfo { return pipeline.StreamInfo{} }

func (*Capture) Next(context.Context) (pipeline.Frame, error) {
	return pipeline.Frame{}, ErrNoBackend
}

func (*Capture) Close() error { return nil }

// Renderer turns a frame and its result into the image to write.
type Renderer func(img image.Image, res pipeline.Result) image.Image

// Writer is unavailable without the gocv build tag.
type Writer struct{}

// Create always fails with ErrNoBackend in this build.
func Create(string, pipeline.StreamInfo, Renderer) (*Writer, error) {
	return nil, ErrNoBackend
}

func (*Writer) Write(context.Context, pipeline.Frame, pipeline.Result) error {
	return ErrNoBackend
}

func (*Writer) Close() error { return nil }
