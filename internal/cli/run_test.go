package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunReferenceCertainTransmission(t *testing.T) {
	stdout, stderr, err := execute(t, "run", "--transmission", "1", "--seed", "1")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "run_reference_certain", []byte(stdout))

	assert.Contains(t, stderr, "simulation starting")
	assert.Contains(t, stderr, "simulation settled")
	assert.NotContains(t, stderr, "level=DEBUG")
}

func TestRunDefaultPrintsInitialGridFirst(t *testing.T) {
	stdout, _, err := execute(t, "run", "--seed", "99")
	require.NoError(t, err)

	blocks := strings.Split(strings.TrimSuffix(stdout, "\n\n"), "\n\n")
	require.GreaterOrEqual(t, len(blocks), 2)
	assert.Equal(t, "0 0 0 0 0 0\n0 0 0 0 0 0\n1 0 0 0 0 0\n0 0 0 0 0 0", blocks[0])
	assert.NotContains(t, blocks[len(blocks)-1], "1", "final grid has no infected cell")
}

func TestRunVerboseLogsSteps(t *testing.T) {
	_, stderr, err := execute(t, "run", "-v", "--transmission", "1", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "new_infections=")
	assert.Contains(t, stderr, "settled after 8 step(s)")
}

func TestRunWithConfigFile(t *testing.T) {
	path := writeConfig(t, `
simulation: {
	rows: 1
	cols: 3
	transmission: 1
	seed: 3
	seeds: [{cell: 1, state: "infected"}]
}
`)
	stdout, _, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Equal(t, "0 1 0\n\n1 2 1\n\n2 2 2\n\n", stdout)
}

func TestRunFlagOverridesConfig(t *testing.T) {
	path := writeConfig(t, `simulation: {rows: 1, cols: 3, transmission: 1, seeds: [{cell: 1, state: "infected"}]}`)

	stdout, _, err := execute(t, "run", path, "--transmission", "0")
	require.NoError(t, err)
	assert.Equal(t, "0 1 0\n\n0 2 0\n\n", stdout)
}

func TestRunJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "run", "--transmission", "1", "--seed", "5")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RunID  string `json:"run_id"`
			Rows   int    `json:"rows"`
			Cols   int    `json:"cols"`
			Steps  int    `json:"steps"`
			Frames []struct {
				Step  int      `json:"step"`
				Cells []string `json:"cells"`
			} `json:"frames"`
			Final       map[string]int `json:"final"`
			Fingerprint string         `json:"fingerprint"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Rows)
	assert.Equal(t, 6, resp.Data.Cols)
	assert.Equal(t, 8, resp.Data.Steps)
	require.Len(t, resp.Data.Frames, 9)
	assert.Equal(t, "infected", resp.Data.Frames[0].Cells[12])
	assert.Equal(t, 24, resp.Data.Final["recovered"])
	assert.Len(t, resp.Data.Fingerprint, 64)

	id, err := uuid.Parse(resp.Data.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestRunMissingConfig(t *testing.T) {
	stdout, _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Contains(t, stdout, "Error [E002]")
}

func TestRunOutOfRangeSeed(t *testing.T) {
	path := writeConfig(t, `simulation: {rows: 2, cols: 2, seeds: [{cell: 4, state: "infected"}]}`)

	_, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cell id 4 out of range [0, 4)")
}

func TestRunStepLimit(t *testing.T) {
	stdout, _, err := execute(t, "run", "--transmission", "1", "--seed", "1", "--max-steps", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "simulation did not settle")
	assert.Contains(t, stdout, "Error [E004]")
}

func TestRunInvalidTransmissionFlag(t *testing.T) {
	_, _, err := execute(t, "run", "--transmission", "2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "transmission probability must be within [0, 1]")
}

func TestRunTooManyArgs(t *testing.T) {
	_, _, err := execute(t, "run", "a.cue", "b.cue")
	require.Error(t, err)
}
