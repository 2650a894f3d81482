package sim

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werous/covid-transmission-sim/internal/config"
	"github.com/werous/covid-transmission-sim/internal/grid"
	"github.com/werous/covid-transmission-sim/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lineConfig() config.Simulation {
	return config.Simulation{
		Rows:         1,
		Cols:         3,
		Transmission: grid.DefaultTransmission,
		Seeds:        []config.Seed{{Cell: 1, State: grid.Infected}},
	}
}

func TestRunNoSelfReinfection(t *testing.T) {
	r, err := New(lineConfig(),
		WithSource(grid.Constant(0)),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-a")),
		WithLogger(quietLogger()),
		WithFrames(),
	)
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)

	assert.Equal(t, "run-a", report.RunID)
	assert.Equal(t, 2, report.Steps)
	require.Len(t, report.Frames, 3)

	assert.Equal(t, []grid.State{grid.Naive, grid.Infected, grid.Naive}, report.Frames[0].Cells)
	assert.Equal(t, 0, report.Frames[0].Step)

	assert.Equal(t, []grid.State{grid.Infected, grid.Recovered, grid.Infected}, report.Frames[1].Cells)
	assert.True(t, report.Frames[1].Changed)
	assert.Equal(t, 2, report.Frames[1].NewInfections)

	assert.Equal(t, []grid.State{grid.Recovered, grid.Recovered, grid.Recovered}, report.Frames[2].Cells)
	assert.False(t, report.Frames[2].Changed)

	assert.Equal(t, grid.Counts{Recovered: 3}, report.Final)
	assert.Len(t, report.Fingerprint, 64)
	assert.False(t, r.Grid().HasChanged())
}

func TestRunZeroProbability(t *testing.T) {
	r, err := New(lineConfig(), WithSource(grid.Constant(1)), WithLogger(quietLogger()), WithFrames())
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, report.Steps)
	require.Len(t, report.Frames, 2)
	assert.Equal(t, []grid.State{grid.Naive, grid.Recovered, grid.Naive}, report.Frames[1].Cells)
	assert.False(t, report.Frames[1].Changed)
}

func TestRunFramesAreSequenced(t *testing.T) {
	clock := NewClockAt(10)
	r, err := New(config.Default(),
		WithSource(grid.NewSource(3)),
		WithClock(clock),
		WithLogger(quietLogger()),
		WithFrames(),
	)
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)

	require.Len(t, report.Frames, report.Steps+1)
	for i, f := range report.Frames {
		assert.Equal(t, int64(11+i), f.Seq)
		assert.Equal(t, i, f.Step)
	}
	assert.Equal(t, clock.Current(), report.Frames[len(report.Frames)-1].Seq)
}

func TestRunDefaultRunIDIsUUIDv7(t *testing.T) {
	r, err := New(config.Default(), WithLogger(quietLogger()))
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)

	id, err := uuid.Parse(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Empty(t, report.Frames, "frames are kept only with WithFrames")
}

func TestRunSettlesWithinCellCount(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		cfg := config.Default()
		cfg.Seed = &seed
		cfg.Transmission = 0.8

		r, err := New(cfg, WithLogger(quietLogger()))
		require.NoError(t, err)

		report, err := r.Run()
		require.NoError(t, err)
		assert.LessOrEqual(t, report.Steps, cfg.Rows*cfg.Cols)
		assert.Zero(t, report.Final.Infected)
	}
}

func TestRunConfigSeedIsReproducible(t *testing.T) {
	seed := uint64(1234)
	cfg := config.Default()
	cfg.Seed = &seed

	run := func() *Report {
		r, err := New(cfg, WithLogger(quietLogger()), WithRunIDGenerator(testutil.NewFixedRunIDGenerator("")))
		require.NoError(t, err)
		report, err := r.Run()
		require.NoError(t, err)
		return report
	}

	a, b := run(), run()
	assert.Equal(t, a, b)
}

func TestRunStepQuota(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSteps = 2

	r, err := New(cfg, WithSource(grid.Constant(0)), WithLogger(quietLogger()))
	require.NoError(t, err)

	report, err := r.Run()
	require.Error(t, err)
	assert.True(t, IsStepsExceededError(err))
	assert.Equal(t, 2, report.Steps)
	assert.NotEmpty(t, report.Fingerprint)

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Steps)
	assert.Equal(t, 2, se.Limit)
}

func TestRunObserver(t *testing.T) {
	var steps []int
	var dumps []string
	r, err := New(lineConfig(),
		WithSource(grid.Constant(0)),
		WithLogger(quietLogger()),
		WithObserver(func(f Frame, g *grid.Grid) error {
			steps = append(steps, f.Step)
			dumps = append(dumps, g.String())
			return nil
		}),
	)
	require.NoError(t, err)

	_, err = r.Run()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, steps)
	assert.Equal(t, []string{"0 1 0\n\n", "1 2 1\n\n", "2 2 2\n\n"}, dumps)
}

func TestRunObserverErrorStops(t *testing.T) {
	boom := errors.New("boom")
	r, err := New(lineConfig(),
		WithSource(grid.Constant(0)),
		WithLogger(quietLogger()),
		WithObserver(func(f Frame, g *grid.Grid) error {
			if f.Step == 1 {
				return boom
			}
			return nil
		}),
	)
	require.NoError(t, err)

	report, err := r.Run()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, report.Steps)
}

func TestNewRejectsOutOfRangeSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Seeds = []config.Seed{{Cell: 24, State: grid.Infected}}

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, grid.IsOutOfRange(err))
}

func TestNewRejectsBadDimensions(t *testing.T) {
	cfg := config.Default()
	cfg.Cols = 0

	_, err := New(cfg)
	var de *grid.DimensionError
	assert.ErrorAs(t, err, &de)
}

func TestNewAppliesSeedsInOrder(t *testing.T) {
	cfg := config.Simulation{
		Rows:         2,
		Cols:         2,
		Transmission: 0.4,
		Seeds: []config.Seed{
			{Cell: 0, State: grid.Infected},
			{Cell: 0, State: grid.Vaccinated},
			{Cell: 3, State: grid.Recovered},
		},
	}

	r, err := New(cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, []grid.State{grid.Vaccinated, grid.Naive, grid.Naive, grid.Recovered}, r.Grid().Cells())
}
