package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	server.Version = Version
	os.Exit(dispatch(os.Args[1:], os.Stdout))
}

// dispatch runs the command named by args[0] and returns the exit code.
// Each subcommand parses its own flags.
func dispatch(args []string, stdout io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 1
	}

	switch args[0] {
	case "run":
		return handleRun(args[1:])
	case "serve":
		return handleServe(args[1:])
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "lane-pilot %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(stdout, "  Backend:    %s\n", hazard.Backend)
		return 0
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage(os.Stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `lane-pilot - per-frame pothole guard and steering decisions

Usage: lane-pilot <command> [options]

Commands:
  run        Process a frame directory or video file
  serve      Run the MCP tool server on stdin/stdout
  version    Print version information
  help       Show this help message

Run flags:
  --input <dir|video>       Frames to process (required)
  --output <dir|video>      Write annotated frames or an annotated video
  --detections <file>       JSON-lines detections, one line per frame
  --model <file.onnx>       YOLO model (requires a gocv build)
  --config <file.json>      Tuning file applied over the defaults
  --env <file>              .env file with LANE_PILOT_* overrides (default .env)
  --journal <file.db>       Record every decision in a SQLite journal
  --decisions <file|->      Write one JSON result per frame
  --plot <file.png>         Plot nearest pothole distance per frame
  --workers <n>             Frames processed concurrently
  --fps <n>                 Frame rate for directory input

Environment variables:
  LANE_PILOT_LOG_LEVEL=debug    Log level (debug, info, warn, error)
  LANE_PILOT_<SETTING>          Tuning overrides, e.g. LANE_PILOT_POTHOLE_DISTANCE_THRESHOLD=120

Examples:
  lane-pilot run --input ./frames --output ./annotated --detections lanes.jsonl
  lane-pilot run --input drive.mp4 --output out.mp4 --model yolov8n.onnx --journal runs.db

The serve command speaks MCP over stdio; configure it in your MCP client.`)
}
