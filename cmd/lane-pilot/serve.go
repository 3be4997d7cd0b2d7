package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ironsheep/lane-pilot/internal/logger"
	"github.com/ironsheep/lane-pilot/internal/server"
)

func handleServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFile := fs.String("config", "", "JSON tuning file")
	envFile := fs.String("env", ".env", "Environment file with LANE_PILOT_* overrides")
	fs.Parse(args)

	// stdout is reserved for MCP traffic; logs go to stderr
	log := logger.FromEnv()

	cfg, err := loadConfig(runOptions{ConfigFile: *configFile, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Debug().Str("version", Version).Str("build_time", BuildTime).Str("commit", GitCommit).Msg("lane-pilot MCP server starting")

	if err := server.New(cfg, log).Run(); err != nil {
		log.Error().Err(err).Msg("server error")
		return 1
	}
	return 0
}
