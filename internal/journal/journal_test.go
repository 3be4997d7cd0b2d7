package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-pilot/internal/config"
	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
	"github.com/ironsheep/lane-pilot/internal/steering"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func result(frame int, cmd decision.Command, nearest *float64) pipeline.Result {
	r := pipeline.Result{
		Frame:   frame,
		Command: cmd,
		Intent:  steering.Left,
		Boxes:   []detection.Box{{Class: 2}, {Class: 0}},
		Hazard:  hazard.Report{Regions: []hazard.Region{}},
	}
	if nearest != nil {
		r.Hazard = hazard.Report{Detected: true, Count: 1, NearestM: nearest}
	}
	return r
}

func TestJournalRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	cfg := config.Default()

	require.NoError(t, j.StartRun(ctx, "run-1", "frames/", cfg))

	d := 12.5
	sink := j.Sink("run-1")
	require.NoError(t, sink.Write(ctx, pipeline.Frame{}, result(1, decision.Left, nil)))
	require.NoError(t, sink.Write(ctx, pipeline.Frame{}, result(0, decision.Brake, &d)))
	require.NoError(t, sink.Close())

	entries, err := j.Decisions(ctx, "run-1")
	require.NoError(t, err)

	want := []Entry{
		{RunID: "run-1", Frame: 0, Command: decision.Brake, Intent: "left", Potholes: 1, NearestM: &d, Boxes: 2},
		{RunID: "run-1", Frame: 1, Command: decision.Left, Intent: "left", Potholes: 0, Boxes: 2},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "frames/", runs[0].Source)

	var stored config.Config
	require.NoError(t, json.Unmarshal([]byte(runs[0].Config), &stored))
	assert.Equal(t, cfg, stored)
}

func TestJournalSeparatesRuns(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.StartRun(ctx, "a", "x", config.Default()))
	require.NoError(t, j.StartRun(ctx, "b", "y", config.Default()))
	require.NoError(t, j.Record(ctx, "a", result(0, decision.Straight, nil)))
	require.NoError(t, j.Record(ctx, "a", result(1, decision.Straight, nil)))
	require.NoError(t, j.Record(ctx, "a", result(2, decision.Right, nil)))
	require.NoError(t, j.Record(ctx, "b", result(0, decision.Left, nil)))

	counts, err := j.CommandCounts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, map[decision.Command]int{decision.Straight: 2, decision.Right: 1}, counts)

	entries, err := j.Decisions(ctx, "b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, decision.Left, entries[0].Command)

	none, err := j.Decisions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournalDuplicateRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.StartRun(ctx, "dup", "x", config.Default()))
	assert.Error(t, j.StartRun(ctx, "dup", "x", config.Default()))
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.StartRun(ctx, "r", "x", config.Default()))
	require.NoError(t, j.Record(ctx, "r", result(0, decision.Straight, nil)))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Decisions(ctx, "r")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
