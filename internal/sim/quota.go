package sim

import (
	"errors"
	"fmt"
)

// stepQuota counts steps and fails once a run goes past its limit.
type stepQuota struct {
	limit   int
	current int
}

func newStepQuota(limit int) *stepQuota {
	return &stepQuota{limit: limit}
}

// check counts one more step and reports whether it is allowed.
func (q *stepQuota) check(runID string) error {
	q.current++
	if q.current > q.limit {
		return &StepsExceededError{RunID: runID, Steps: q.current, Limit: q.limit}
	}
	return nil
}

// StepsExceededError is returned when a run is still changing after its step limit.
type StepsExceededError struct {
	RunID string
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max steps: %d steps > %d limit", e.RunID, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if err is or wraps a *StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
