// Package config holds the immutable tuning values shared by every stage of
// the decision engine.
//
// A Config is built once per run (defaults, then an optional JSON tuning file,
// then LANE_PILOT_* environment overrides) and validated before any frame is
// processed. After that it is passed by value and never mutated, so it can be
// shared freely across concurrent frame workers.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// ErrInvalidConfig is returned by Validate and Load for inconsistent values.
var ErrInvalidConfig = errors.New("invalid config")

// maxFileSize bounds tuning files read by Load.
const maxFileSize = 1 * 1024 * 1024

// Config is the full tuning surface of the engine.
//
// Distances are in meters throughout: DistanceEstimator output and
// BrakeDistanceM share that unit.
type Config struct {
	// GrayThreshold is a legacy global threshold. Segmentation is adaptive
	// and does not read it; it is kept so older tuning files still load.
	GrayThreshold int `json:"gray_threshold"`

	// Shape filter bounds. Area is in square pixels for the reference
	// resolution; all comparisons are strict.
	MinArea        float64 `json:"min_area"`
	MaxArea        float64 `json:"max_area"`
	MinAspect      float64 `json:"min_aspect_ratio"`
	MaxAspect      float64 `json:"max_aspect_ratio"`
	MinCircularity float64 `json:"min_circularity"`

	// Pinhole calibration.
	FocalLengthPx   float64 `json:"focal_length"`
	ReferenceWidthM float64 `json:"reference_object_width"`

	// BrakeDistanceM triggers the brake override when a hazard is strictly
	// nearer than this.
	BrakeDistanceM float64 `json:"pothole_distance_threshold"`

	// Steering.
	LaneClass         int     `json:"lane_class_label"`
	DeadBandFraction  float64 `json:"steering_dead_band_fraction"`
	MinLaneConfidence float64 `json:"min_lane_confidence"`

	// Segmentation kernels (odd sizes) and adaptive offset.
	BlurKernel      int     `json:"blur_kernel"`
	BlockSize       int     `json:"block_size"`
	ThresholdOffset float64 `json:"threshold_offset"`
	MorphKernel     int     `json:"morph_kernel"`

	// Workers is the number of frames processed concurrently by the runner.
	Workers int `json:"workers"`
}

// Default returns the reference tuning.
func Default() Config {
	return Config{
		GrayThreshold:     50,
		MinArea:           500,
		MaxArea:           15000,
		MinAspect:         0.5,
		MaxAspect:         2.0,
		MinCircularity:    0.3,
		FocalLengthPx:     1000,
		ReferenceWidthM:   0.5,
		BrakeDistanceM:    150,
		LaneClass:         2,
		DeadBandFraction:  0.05,
		MinLaneConfidence: 0,
		BlurKernel:        9,
		BlockSize:         19,
		ThresholdOffset:   2,
		MorphKernel:       5,
		Workers:           1,
	}
}

// Load reads a JSON tuning file on top of Default. Keys missing from the file
// keep their default values. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent value, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if name, ok := c.nonFinite(); ok {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidConfig, name)
	}

	switch {
	case c.MinArea < 0 || c.MinArea >= c.MaxArea:
		return fmt.Errorf("%w: min_area %.0f must be in [0, max_area %.0f)", ErrInvalidConfig, c.MinArea, c.MaxArea)
	case c.MinAspect <= 0 || c.MinAspect >= c.MaxAspect:
		return fmt.Errorf("%w: aspect bounds (%.2f, %.2f) are empty", ErrInvalidConfig, c.MinAspect, c.MaxAspect)
	case c.MinCircularity < 0 || c.MinCircularity >= 1:
		return fmt.Errorf("%w: min_circularity %.2f must be in [0, 1)", ErrInvalidConfig, c.MinCircularity)
	case c.FocalLengthPx <= 0:
		return fmt.Errorf("%w: focal_length must be positive", ErrInvalidConfig)
	case c.ReferenceWidthM <= 0:
		return fmt.Errorf("%w: reference_object_width must be positive", ErrInvalidConfig)
	case c.BrakeDistanceM < 0:
		return fmt.Errorf("%w: pothole_distance_threshold must not be negative", ErrInvalidConfig)
	case c.DeadBandFraction < 0 || c.DeadBandFraction >= 0.5:
		return fmt.Errorf("%w: steering_dead_band_fraction %.3f must be in [0, 0.5)", ErrInvalidConfig, c.DeadBandFraction)
	case c.MinLaneConfidence < 0 || c.MinLaneConfidence > 1:
		return fmt.Errorf("%w: min_lane_confidence must be in [0, 1]", ErrInvalidConfig)
	case !oddPositive(c.BlurKernel):
		return fmt.Errorf("%w: blur_kernel %d must be odd and positive", ErrInvalidConfig, c.BlurKernel)
	case !oddPositive(c.BlockSize) || c.BlockSize < 3:
		return fmt.Errorf("%w: block_size %d must be odd and >= 3", ErrInvalidConfig, c.BlockSize)
	case !oddPositive(c.MorphKernel):
		return fmt.Errorf("%w: morph_kernel %d must be odd and positive", ErrInvalidConfig, c.MorphKernel)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// nonFinite names the first float setting that is NaN or infinite.
func (c Config) nonFinite() (string, bool) {
	fields := []struct {
		name  string
		value float64
	}{
		{"min_area", c.MinArea},
		{"max_area", c.MaxArea},
		{"min_aspect_ratio", c.MinAspect},
		{"max_aspect_ratio", c.MaxAspect},
		{"min_circularity", c.MinCircularity},
		{"focal_length", c.FocalLengthPx},
		{"reference_object_width", c.ReferenceWidthM},
		{"pothole_distance_threshold", c.BrakeDistanceM},
		{"steering_dead_band_fraction", c.DeadBandFraction},
		{"min_lane_confidence", c.MinLaneConfidence},
		{"threshold_offset", c.ThresholdOffset},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return f.name, true
		}
	}
	return "", false
}

func oddPositive(n int) bool {
	return n > 0 && n%2 == 1
}
