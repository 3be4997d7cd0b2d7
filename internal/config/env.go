package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LANE_PILOT_"

// FromEnv applies LANE_PILOT_* overrides on top of cfg. When envFile is not
// empty it is loaded first with godotenv; a missing file is not an error and
// variables already set in the process environment win over the file.
func FromEnv(cfg Config, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.MinArea = getEnvAsFloat("MIN_AREA", cfg.MinArea)
	cfg.MaxArea = getEnvAsFloat("MAX_AREA", cfg.MaxArea)
	cfg.MinAspect = getEnvAsFloat("MIN_ASPECT_RATIO", cfg.MinAspect)
	cfg.MaxAspect = getEnvAsFloat("MAX_ASPECT_RATIO", cfg.MaxAspect)
	cfg.MinCircularity = getEnvAsFloat("MIN_CIRCULARITY", cfg.MinCircularity)
	cfg.FocalLengthPx = getEnvAsFloat("FOCAL_LENGTH", cfg.FocalLengthPx)
	cfg.ReferenceWidthM = getEnvAsFloat("REFERENCE_OBJECT_WIDTH", cfg.ReferenceWidthM)
	cfg.BrakeDistanceM = getEnvAsFloat("POTHOLE_DISTANCE_THRESHOLD", cfg.BrakeDistanceM)
	cfg.LaneClass = getEnvAsInt("LANE_CLASS_LABEL", cfg.LaneClass)
	cfg.DeadBandFraction = getEnvAsFloat("STEERING_DEAD_BAND_FRACTION", cfg.DeadBandFraction)
	cfg.MinLaneConfidence = getEnvAsFloat("MIN_LANE_CONFIDENCE", cfg.MinLaneConfidence)
	cfg.Workers = getEnvAsInt("WORKERS", cfg.Workers)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := getEnv(key, ""); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
