package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500.0, cfg.MinArea)
	assert.Equal(t, 15000.0, cfg.MaxArea)
	assert.Equal(t, 1000.0, cfg.FocalLengthPx)
	assert.Equal(t, 0.5, cfg.ReferenceWidthM)
	assert.Equal(t, 150.0, cfg.BrakeDistanceM)
	assert.Equal(t, 0.05, cfg.DeadBandFraction)
	assert.Equal(t, 2, cfg.LaneClass)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min area not below max", func(c *Config) { c.MinArea = c.MaxArea }},
		{"negative min area", func(c *Config) { c.MinArea = -1 }},
		{"empty aspect range", func(c *Config) { c.MinAspect, c.MaxAspect = 2, 0.5 }},
		{"circularity of one", func(c *Config) { c.MinCircularity = 1 }},
		{"zero focal length", func(c *Config) { c.FocalLengthPx = 0 }},
		{"zero reference width", func(c *Config) { c.ReferenceWidthM = 0 }},
		{"negative brake distance", func(c *Config) { c.BrakeDistanceM = -1 }},
		{"dead band too wide", func(c *Config) { c.DeadBandFraction = 0.5 }},
		{"confidence above one", func(c *Config) { c.MinLaneConfidence = 1.5 }},
		{"even blur kernel", func(c *Config) { c.BlurKernel = 8 }},
		{"tiny block size", func(c *Config) { c.BlockSize = 1 }},
		{"zero morph kernel", func(c *Config) { c.MorphKernel = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"NaN brake distance", func(c *Config) { c.BrakeDistanceM = math.NaN() }},
		{"infinite focal length", func(c *Config) { c.FocalLengthPx = math.Inf(1) }},
		{"NaN min area", func(c *Config) { c.MinArea = math.NaN() }},
		{"NaN max area", func(c *Config) { c.MaxArea = math.NaN() }},
		{"NaN dead band", func(c *Config) { c.DeadBandFraction = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "tuning.json", `{"min_area": 800, "pothole_distance_threshold": 12.5}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800.0, cfg.MinArea)
	assert.Equal(t, 12.5, cfg.BrakeDistanceM)
	assert.Equal(t, 15000.0, cfg.MaxArea)
	assert.Equal(t, 19, cfg.BlockSize)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("wrong extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "tuning.yaml", "min_area: 1"))
		assert.ErrorContains(t, err, ".json extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Load(writeFile(t, "tuning.json", "{"))
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeFile(t, "tuning.json", `{"min_area": 20000}`))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LANE_PILOT_POTHOLE_DISTANCE_THRESHOLD", "8")
	t.Setenv("LANE_PILOT_LANE_CLASS_LABEL", "3")
	t.Setenv("LANE_PILOT_WORKERS", "not-a-number")

	cfg, err := FromEnv(Default(), "")
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.BrakeDistanceM)
	assert.Equal(t, 3, cfg.LaneClass)
	assert.Equal(t, 1, cfg.Workers, "unparsable values keep the previous setting")
}

func TestFromEnv_RejectsNonFinite(t *testing.T) {
	for _, tt := range []struct{ key, value string }{
		{"LANE_PILOT_POTHOLE_DISTANCE_THRESHOLD", "NaN"},
		{"LANE_PILOT_FOCAL_LENGTH", "Inf"},
		{"LANE_PILOT_STEERING_DEAD_BAND_FRACTION", "-Inf"},
	} {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv(Default(), "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestFromEnv_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "LANE_PILOT_MIN_AREA=650\n")
	t.Cleanup(func() { os.Unsetenv("LANE_PILOT_MIN_AREA") })

	cfg, err := FromEnv(Default(), envFile)
	require.NoError(t, err)
	assert.Equal(t, 650.0, cfg.MinArea)
}

func TestFromEnv_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := FromEnv(Default(), filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}
