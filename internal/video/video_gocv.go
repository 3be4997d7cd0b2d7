//go:build gocv

package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// Capture is a pipeline.FrameSource over a video file.
type Capture struct {
	vc    *gocv.VideoCapture
	mat   gocv.Mat
	info  pipeline.StreamInfo
	index int
}

// Open opens a video file for reading.
func Open(path string) (*Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	return &Capture{
		vc:  vc,
		mat: gocv.NewMat(),
		info: pipeline.StreamInfo{
			Width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
			FPS:    fpsOrDefault(vc.Get(gocv.VideoCaptureFPS)),
			Frames: int(vc.Get(gocv.VideoCaptureFrameCount)),
		},
	}, nil
}

// Info reports the container's size, frame rate and frame count.
func (c *Capture) Info() pipeline.StreamInfo {
	return c.info
}

// Next decodes the next frame. A frame that fails to convert is returned
// with a nil Image so the runner skips it.
func (c *Capture) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return pipeline.Frame{}, io.EOF
	}

	frame := pipeline.Frame{Index: c.index}
	c.index++
	if img, err := c.mat.ToImage(); err == nil {
		frame.Image = img
	}
	return frame, nil
}

// Close releases the capture.
func (c *Capture) Close() error {
	c.mat.Close()
	return c.vc.Close()
}

// Renderer turns a frame and its result into the image to write.
type Renderer func(img image.Image, res pipeline.Result) image.Image

// Writer is a pipeline.Sink that encodes frames into a video file.
type Writer struct {
	mu     sync.Mutex
	vw     *gocv.VideoWriter
	render Renderer
}

// Create opens path for writing with the mp4v codec. A nil render writes
// frames unchanged.
func Create(path string, info pipeline.StreamInfo, render Renderer) (*Writer, error) {
	vw, err := gocv.VideoWriterFile(path, Codec, fpsOrDefault(info.FPS), info.Width, info.Height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create video %s: %w", path, err)
	}
	return &Writer{vw: vw, render: render}, nil
}

// Write renders and encodes one frame.
func (w *Writer) Write(_ context.Context, frame pipeline.Frame, res pipeline.Result) error {
	img := frame.Image
	if w.render != nil {
		img = w.render(img, res)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("failed to convert frame %d: %w", frame.Index, err)
	}
	defer mat.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.vw.Write(mat); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", frame.Index, err)
	}
	return nil
}

// Close finalizes the container.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.vw.Close()
}
