package decision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/steering"
)

func reportAt(distance float64) hazard.Report {
	return hazard.Report{
		Detected: true,
		Count:    1,
		NearestM: &distance,
		Regions:  []hazard.Region{{DistanceM: distance}},
	}
}

func TestDecideBrakeOverride(t *testing.T) {
	assert.Equal(t, Brake, Decide(reportAt(100), steering.Left, 150))
	assert.Equal(t, Left, Decide(reportAt(200), steering.Left, 150))
	assert.Equal(t, Right, Decide(reportAt(150), steering.Right, 150), "threshold is exclusive")
	assert.Equal(t, Brake, Decide(reportAt(149.999), steering.Straight, 150))
}

func TestDecidePassThrough(t *testing.T) {
	none := hazard.Report{Regions: []hazard.Region{}}

	tests := []struct {
		intent steering.Intent
		want   Command
	}{
		{intent: steering.Straight, want: Straight},
		{intent: steering.Left, want: Left},
		{intent: steering.Right, want: Right},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(none, tt.intent, 150))
	}
}

func TestDecideIgnoresInconsistentReport(t *testing.T) {
	d := 1.0
	stale := hazard.Report{Detected: false, NearestM: &d}
	assert.Equal(t, Left, Decide(stale, steering.Left, 150))

	missing := hazard.Report{Detected: true, Count: 1}
	assert.Equal(t, Left, Decide(missing, steering.Left, 150))
}

func TestCommandText(t *testing.T) {
	names := []string{"straight", "left", "right", "brake"}
	for i, c := range Commands {
		assert.Equal(t, names[i], c.String())
		parsed, err := Parse(names[i])
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "Command(7)", Command(7).String())

	_, err := Parse("reverse")
	assert.Error(t, err)

	data, err := json.Marshal(struct {
		Command Command `json:"command"`
	}{Brake})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"brake"}`, string(data))

	var back struct {
		Command Command `json:"command"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"command":"right"}`), &back))
	assert.Equal(t, Right, back.Command)

	_, err = Command(-1).MarshalText()
	assert.Error(t, err)
}
