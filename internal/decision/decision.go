// Package decision fuses the hazard report and the steering intent into the
// frame's driving command.
package decision

import (
	"fmt"

	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/steering"
)

// Command is the final per-frame driving command.
type Command int

const (
	Straight Command = iota
	Left
	Right
	Brake
)

var commandNames = [...]string{
	Straight: "straight",
	Left:     "left",
	Right:    "right",
	Brake:    "brake",
}

// Commands lists every command in declaration order.
var Commands = []Command{Straight, Left, Right, Brake}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// MarshalText encodes the command as its name.
func (c Command) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(commandNames) {
		return nil, fmt.Errorf("unknown command %d", int(c))
	}
	return []byte(commandNames[c]), nil
}

// UnmarshalText parses a command name.
func (c *Command) UnmarshalText(text []byte) error {
	cmd, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = cmd
	return nil
}

// Parse returns the command with the given name.
func Parse(name string) (Command, error) {
	for i, n := range commandNames {
		if n == name {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// FromIntent maps a steering intent onto the matching command.
func FromIntent(i steering.Intent) Command {
	switch i {
	case steering.Left:
		return Left
	case steering.Right:
		return Right
	default:
		return Straight
	}
}

// Decide returns Brake when a hazard is strictly nearer than brakeDistanceM,
// and the steering intent otherwise. It keeps no state between calls.
func Decide(report hazard.Report, intent steering.Intent, brakeDistanceM float64) Command {
	if nearest, ok := report.Nearest(); report.Detected && ok && nearest < brakeDistanceM {
		return Brake
	}
	return FromIntent(intent)
}
