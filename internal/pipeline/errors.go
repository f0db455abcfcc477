package pipeline

import "fmt"

// ConfigError is a fatal, pre-execution problem: a malformed step
// registry, a dependency cycle, or an unusable genome list. Nothing
// is dispatched once one is found.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// configErrorf builds a ConfigError from a format string
func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// StepFailure is one external command exiting non-zero or crashing.
// It marks its node Failed and blocks that genome's downstream steps,
// but never aborts the run: other genomes keep going.
type StepFailure struct {
	Unit string
	Step string
	Log  string
	Err  error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %s failed for %s (see %s): %v", e.Step, e.Unit, e.Log, e.Err)
}

func (e *StepFailure) Unwrap() error {
	return e.Err
}

// EnvironmentError is a missing external tool. Found pre-flight it is
// fatal; a binary that disappears mid-run surfaces as a StepFailure
// instead.
type EnvironmentError struct {
	Tool string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("missing external tool %s: %v", e.Tool, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}
