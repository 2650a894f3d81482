package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/werous/covid-transmission-sim/internal/sim"
	"github.com/werous/covid-transmission-sim/internal/trace"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string
	Transmission float64
	Result       *Result
}

// toCanonicalMap builds the value encoded by trace.MarshalCanonical.
// Transmission is rendered as a string because canonical JSON has no floats.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	frames := make([]any, len(s.Result.Trace))
	for i, f := range s.Result.Trace {
		frames[i] = frameMap(f)
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.Result.RunID,
		"transmission":  trace.FormatFloat(s.Transmission),
		"steps":         s.Result.Steps,
		"draws":         s.Result.Draws,
		"fingerprint":   s.Result.Fingerprint,
		"frames":        frames,
	}
}

func frameMap(f sim.Frame) map[string]any {
	return map[string]any{
		"seq":            f.Seq,
		"step":           f.Step,
		"changed":        f.Changed,
		"new_infections": f.NewInfections,
		"counts": map[string]any{
			"naive":      f.Counts.Naive,
			"infected":   f.Counts.Infected,
			"recovered":  f.Counts.Recovered,
			"vaccinated": f.Counts.Vaccinated,
		},
		"cells": f.Cells,
	}
}

// MarshalTrace returns the canonical JSON trace of a scenario run.
func MarshalTrace(s *Scenario, r *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: s.Name,
		Transmission: s.Config().Transmission,
		Result:       r,
	}
	return trace.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, s, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against its golden file.
func AssertGolden(t *testing.T, s *Scenario, r *Result) error {
	t.Helper()

	data, err := MarshalTrace(s, r)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return nil
}
