package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/logger"
)

// Summary describes a finished run.
type Summary struct {
	RunID     string                   `json:"run_id"`
	Frames    int                      `json:"frames"`
	Processed int                      `json:"processed"`
	Skipped   int                      `json:"skipped"`
	Commands  map[decision.Command]int `json:"commands"`
	Elapsed   time.Duration            `json:"elapsed"`
}

// Runner drives an Engine over a FrameSource.
type Runner struct {
	engine  *Engine
	model   detection.Model
	workers int
	runID   string
	log     zerolog.Logger
}

// NewRunner builds a runner. A nil model means no detections. The worker
// count comes from the engine's config.
func NewRunner(engine *Engine, model detection.Model, log zerolog.Logger) *Runner {
	if model == nil {
		model = detection.None{}
	}
	runID := uuid.NewString()
	return &Runner{
		engine:  engine,
		model:   model,
		workers: max(engine.Config().Workers, 1),
		runID:   runID,
		log:     logger.Component(log, "runner").With().Str("run_id", runID).Logger(),
	}
}

// RunID identifies this runner's run.
func (r *Runner) RunID() string {
	return r.runID
}

type job struct {
	seq   int
	frame Frame
}

type outcome struct {
	seq     int
	frame   Frame
	result  Result
	skipped error
}

// Run processes every frame of src and writes the results to sink in frame
// order. Source, model and sink errors abort the run; invalid frames are
// skipped. The returned Summary is valid even when err is not nil.
func (r *Runner) Run(ctx context.Context, src FrameSource, sink Sink) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: r.runID, Commands: make(map[decision.Command]int)}

	info := src.Info()
	r.log.Info().
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int("frames", info.Frames).
		Int("workers", r.workers).
		Msg("processing started")

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job, r.workers)
	outcomes := make(chan outcome, r.workers)

	g.Go(func() error {
		defer close(jobs)
		return r.read(ctx, src, jobs)
	})

	var workers sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			return r.work(ctx, jobs, outcomes)
		})
	}
	go func() {
		workers.Wait()
		close(outcomes)
	}()

	g.Go(func() error {
		return r.emit(ctx, outcomes, sink, &summary)
	})

	err := g.Wait()
	summary.Elapsed = time.Since(start)

	event := r.log.Info()
	if err != nil {
		event = r.log.Error().Err(err)
	}
	event.
		Int("frames", summary.Frames).
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("brake", summary.Commands[decision.Brake]).
		Dur("elapsed", summary.Elapsed).
		Msg("processing complete")

	return summary, err
}

func (r *Runner) read(ctx context.Context, src FrameSource, jobs chan<- job) error {
	for seq := 0; ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame %d: %w", seq, err)
		}
		select {
		case jobs <- job{seq: seq, frame: frame}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Runner) work(ctx context.Context, jobs <-chan job, outcomes chan<- outcome) error {
	for j := range jobs {
		o, err := r.process(ctx, j)
		if err != nil {
			return err
		}
		select {
		case outcomes <- o:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) process(ctx context.Context, j job) (outcome, error) {
	o := outcome{seq: j.seq, frame: j.frame}
	if j.frame.Err != nil {
		o.skipped = fmt.Errorf("%w: %w", hazard.ErrInvalidFrame, j.frame.Err)
		return o, nil
	}
	if err := hazard.ValidateFrame(j.frame.Image); err != nil {
		o.skipped = err
		return o, nil
	}

	boxes, err := r.model.Detect(ctx, j.frame.Index, j.frame.Image)
	if err != nil {
		return o, fmt.Errorf("detect frame %d: %w", j.frame.Index, err)
	}

	result, err := r.engine.Process(j.frame, boxes)
	if errors.Is(err, hazard.ErrInvalidFrame) {
		o.skipped = err
		return o, nil
	}
	if err != nil {
		return o, err
	}
	o.result = result
	return o, nil
}

// emit restores frame order before writing to the sink.
func (r *Runner) emit(ctx context.Context, outcomes <-chan outcome, sink Sink, summary *Summary) error {
	pending := make(map[int]outcome)
	next := 0
	for o := range outcomes {
		pending[o.seq] = o
		for {
			o, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			summary.Frames++

			if o.skipped != nil {
				summary.Skipped++
				r.log.Warn().Err(o.skipped).Int("frame", o.frame.Index).Msg("skipping frame")
				continue
			}

			if err := sink.Write(ctx, o.frame, o.result); err != nil {
				return fmt.Errorf("write frame %d: %w", o.frame.Index, err)
			}
			summary.Processed++
			summary.Commands[o.result.Command]++

			nearest, _ := o.result.Hazard.Nearest()
			r.log.Debug().
				Int("frame", o.frame.Index).
				Int("potholes", o.result.Hazard.Count).
				Float64("nearest_m", nearest).
				Stringer("intent", o.result.Intent).
				Stringer("command", o.result.Command).
				Msg("frame decided")

			if summary.Frames%100 == 0 {
				r.log.Info().Int("frames", summary.Frames).Msg("progress")
			}
		}
	}
	return nil
}
