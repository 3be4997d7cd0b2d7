// Package report accumulates per-run statistics and renders the nearest
// pothole distance over time.
package report

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// ErrNoSamples is returned by Plot when no frame had a pothole.
var ErrNoSamples = errors.New("no distance samples to plot")

// sample is one frame's outcome.
type sample struct {
	frame    int
	command  decision.Command
	nearest  float64
	detected bool
}

// Distances summarizes nearest-pothole distances over frames with a
// detection.
type Distances struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min_m"`
	Max    float64 `json:"max_m"`
	Mean   float64 `json:"mean_m"`
	StdDev float64 `json:"stddev_m"`
}

// Stats is the summary of a run. Skipped is filled in by the caller from
// the runner's summary; the collector never sees skipped frames.
type Stats struct {
	Frames         int                      `json:"frames"`
	DetectedFrames int                      `json:"detected_frames"`
	Potholes       int                      `json:"potholes"`
	Commands       map[decision.Command]int `json:"commands"`
	BrakeRuns      int                      `json:"brake_runs"`
	Skipped        int                      `json:"skipped"`
	Distances      Distances                `json:"distances"`
}

// Collector is a pipeline.Sink that keeps a sample per frame.
type Collector struct {
	BrakeDistanceM float64

	mu       sync.Mutex
	samples  []sample
	potholes int
}

// NewCollector returns an empty collector. brakeDistanceM is drawn as a
// reference line on the plot.
func NewCollector(brakeDistanceM float64) *Collector {
	return &Collector{BrakeDistanceM: brakeDistanceM}
}

// Write records res.
func (c *Collector) Write(_ context.Context, _ pipeline.Frame, res pipeline.Result) error {
	s := sample{frame: res.Frame, command: res.Command}
	s.nearest, s.detected = res.Hazard.Nearest()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
	c.potholes += res.Hazard.Count
	return nil
}

// Close is a no-op; the collector stays readable.
func (c *Collector) Close() error {
	return nil
}

// ordered returns a frame-ordered copy of the samples.
func (c *Collector) ordered() []sample {
	c.mu.Lock()
	out := make([]sample, len(c.samples))
	copy(out, c.samples)
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].frame < out[j].frame })
	return out
}

// Stats summarizes the frames written so far.
func (c *Collector) Stats() Stats {
	samples := c.ordered()

	st := Stats{
		Frames:   len(samples),
		Commands: make(map[decision.Command]int),
	}
	c.mu.Lock()
	st.Potholes = c.potholes
	c.mu.Unlock()

	var dists []float64
	braking := false
	for _, s := range samples {
		st.Commands[s.command]++
		if s.detected {
			st.DetectedFrames++
			dists = append(dists, s.nearest)
		}
		// a brake run is a maximal stretch of consecutive brake frames
		if s.command == decision.Brake && !braking {
			st.BrakeRuns++
		}
		braking = s.command == decision.Brake
	}

	if len(dists) > 0 {
		st.Distances = Distances{
			Count: len(dists),
			Min:   floats.Min(dists),
			Max:   floats.Max(dists),
			Mean:  stat.Mean(dists, nil),
		}
		if len(dists) > 1 {
			st.Distances.StdDev = stat.StdDev(dists, nil)
		}
	}
	return st
}

// WriteText prints a human-readable summary of st.
func (st Stats) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "frames: %d  skipped: %d  with potholes: %d  potholes: %d  brake runs: %d\n",
		st.Frames, st.Skipped, st.DetectedFrames, st.Potholes, st.BrakeRuns)
	if err != nil {
		return err
	}
	for _, cmd := range decision.Commands {
		if _, err := fmt.Fprintf(w, "  %-8s %d\n", cmd, st.Commands[cmd]); err != nil {
			return err
		}
	}
	if st.Distances.Count > 0 {
		d := st.Distances
		_, err = fmt.Fprintf(w, "nearest distance: min %.1fm  max %.1fm  mean %.1fm  stddev %.1fm\n",
			d.Min, d.Max, d.Mean, d.StdDev)
	}
	return err
}

// Plot saves a chart of nearest distance per frame to path. The image
// format follows the extension (.png, .svg, .pdf).
func (c *Collector) Plot(path string) error {
	samples := c.ordered()

	pts := make(plotter.XYs, 0, len(samples))
	brakes := make(plotter.XYs, 0)
	first, last := 0, 0
	for i, s := range samples {
		if i == 0 {
			first = s.frame
		}
		last = s.frame
		if !s.detected {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(s.frame), Y: s.nearest})
		if s.command == decision.Brake {
			brakes = append(brakes, plotter.XY{X: float64(s.frame), Y: s.nearest})
		}
	}
	if len(pts) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = "Nearest pothole"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Distance (m)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 0, G: 90, B: 200, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("nearest", line)

	if len(brakes) > 0 {
		scatter, err := plotter.NewScatter(brakes)
		if err != nil {
			return err
		}
		scatter.Color = color.RGBA{R: 220, A: 255}
		scatter.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add("brake", scatter)
	}

	if c.BrakeDistanceM > 0 {
		threshold, err := plotter.NewLine(plotter.XYs{
			{X: float64(first), Y: c.BrakeDistanceM},
			{X: float64(last), Y: c.BrakeDistanceM},
		})
		if err != nil {
			return err
		}
		threshold.Color = color.Gray{Y: 120}
		threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(threshold)
		p.Legend.Add("brake distance", threshold)
	}

	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
