package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/lane-pilot/internal/config"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/imaging"
	"github.com/ironsheep/lane-pilot/internal/journal"
	"github.com/ironsheep/lane-pilot/internal/logger"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
	"github.com/ironsheep/lane-pilot/internal/report"
	"github.com/ironsheep/lane-pilot/internal/video"
)

// runOptions are the run subcommand's flags.
type runOptions struct {
	Input      string
	Output     string
	Detections string
	Model      string
	ConfigFile string
	EnvFile    string
	Journal    string
	Decisions  string
	Plot       string
	Workers    int
	FPS        float64
}

func handleRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var opts runOptions
	fs.StringVar(&opts.Input, "input", "", "Frame directory or video file (required)")
	fs.StringVar(&opts.Output, "output", "", "Annotated output directory or video file")
	fs.StringVar(&opts.Detections, "detections", "", "JSON-lines detections file")
	fs.StringVar(&opts.Model, "model", "", "YOLO ONNX model (gocv builds only)")
	fs.StringVar(&opts.ConfigFile, "config", "", "JSON tuning file")
	fs.StringVar(&opts.EnvFile, "env", ".env", "Environment file with LANE_PILOT_* overrides")
	fs.StringVar(&opts.Journal, "journal", "", "SQLite decision journal")
	fs.StringVar(&opts.Decisions, "decisions", "", "JSON-lines decision log, - for stdout")
	fs.StringVar(&opts.Plot, "plot", "", "Nearest-distance plot (.png, .svg, .pdf)")
	fs.IntVar(&opts.Workers, "workers", 0, "Frames processed concurrently (default from config)")
	fs.Float64Var(&opts.FPS, "fps", video.DefaultFPS, "Frame rate for directory input")
	fs.Parse(args)

	if opts.Input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		fs.Usage()
		return 2
	}
	if opts.Detections != "" && opts.Model != "" {
		fmt.Fprintln(os.Stderr, "Error: --detections and --model are mutually exclusive")
		return 2
	}

	log := logger.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := runPipeline(ctx, opts, log)
	if stats != nil {
		stats.WriteText(os.Stderr)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}

// loadConfig layers defaults, the tuning file, environment overrides and
// the worker flag, then validates.
func loadConfig(opts runOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return cfg, err
		}
	}
	cfg, err := config.FromEnv(cfg, opts.EnvFile)
	if err != nil {
		return cfg, err
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	return cfg, cfg.Validate()
}

// openModel returns the detection model selected by the flags and a
// function releasing it.
func openModel(opts runOptions) (detection.Model, func() error, error) {
	switch {
	case opts.Detections != "":
		m, err := detection.LoadRecorded(opts.Detections)
		if err != nil {
			return nil, nil, err
		}
		return m, func() error { return nil }, nil
	case opts.Model != "":
		m, err := detection.NewYOLO(detection.DefaultYOLOConfig(opts.Model))
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return detection.None{}, func() error { return nil }, nil
	}
}

// openSource picks the video reader or the directory reader by extension.
func openSource(opts runOptions) (pipeline.FrameSource, error) {
	if video.IsVideoFile(opts.Input) {
		return video.Open(opts.Input)
	}
	return imaging.NewDirSource(opts.Input, opts.FPS)
}

// openOutput returns the annotated-output sink, or nil when no output was
// requested.
func openOutput(opts runOptions, info pipeline.StreamInfo, annotator *imaging.Annotator) (pipeline.Sink, error) {
	switch {
	case opts.Output == "":
		return nil, nil
	case video.IsVideoFile(opts.Output):
		render := func(img image.Image, res pipeline.Result) image.Image {
			return annotator.Annotate(img, res)
		}
		return video.Create(opts.Output, info, render)
	default:
		return imaging.NewFrameWriter(opts.Output, "png", 1.0, annotator)
	}
}

// keepOpen hides Close so the JSON-lines sink leaves stdout open.
type keepOpen struct{ io.Writer }

// runPipeline wires the source, model, engine and sinks for one run. The
// returned stats cover every frame written, even when the run fails.
func runPipeline(ctx context.Context, opts runOptions, log zerolog.Logger) (*report.Stats, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	model, closeModel, err := openModel(opts)
	if err != nil {
		return nil, err
	}
	defer closeModel()

	src, err := openSource(opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	engine := pipeline.NewEngine(cfg, hazard.DefaultSegmenter(cfg))
	runner := pipeline.NewRunner(engine, model, log)
	collector := report.NewCollector(cfg.BrakeDistanceM)
	sinks := pipeline.MultiSink{collector}

	if out, err := openOutput(opts, src.Info(), imaging.NewAnnotator(cfg.LaneClass)); err != nil {
		return nil, err
	} else if out != nil {
		sinks = append(sinks, out)
	}

	if opts.Decisions != "" {
		var w io.Writer = keepOpen{os.Stdout}
		if opts.Decisions != "-" {
			f, err := os.Create(opts.Decisions)
			if err != nil {
				sinks.Close()
				return nil, fmt.Errorf("failed to create decision log: %w", err)
			}
			w = f
		}
		sinks = append(sinks, pipeline.NewJSONLSink(w))
	}

	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		defer j.Close()
		if err := j.StartRun(ctx, runner.RunID(), opts.Input, cfg); err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, j.Sink(runner.RunID()))
	}

	summary, runErr := runner.Run(ctx, src, sinks)
	closeErr := sinks.Close()

	stats := collector.Stats()
	stats.Skipped = summary.Skipped

	if opts.Plot != "" {
		if err := collector.Plot(opts.Plot); errors.Is(err, report.ErrNoSamples) {
			log.Warn().Str("path", opts.Plot).Msg("no potholes detected, plot skipped")
		} else if err != nil {
			return &stats, err
		}
	}

	return &stats, errors.Join(runErr, closeErr)
}
