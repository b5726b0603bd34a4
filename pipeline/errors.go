package pipeline

import "fmt"

// ConfigurationError reports bad wiring detected at setup time: a factory
// declaring an active parameter without a range or prior, an unknown
// randomness policy or protocol name, and similar. Always fatal; raised
// before any sampling begins and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ConsistencyFault reports cross-process disagreement under the replicated
// protocol: a worker's proposal did not match rank 0's. It indicates the
// external sampler's broadcast step failed; the worker group must abort
// rather than continue with divergent state.
type ConsistencyFault struct {
	Rank   int
	Reason string
}

func (e *ConsistencyFault) Error() string {
	return fmt.Sprintf("consistency fault at rank %d: %s", e.Rank, e.Reason)
}

// ThresholdExceeded reports a log-likelihood above the configured threshold.
// A positive or excessive log-likelihood usually signals a unit or covariance
// bug rather than a legitimate sample, so when the guard is enabled this is
// fatal, never clamped.
type ThresholdExceeded struct {
	Value     float64
	Threshold float64
}

func (e *ThresholdExceeded) Error() string {
	return fmt.Sprintf("log-likelihood %g beyond threshold %g", e.Value, e.Threshold)
}

// NotAvailableError reports a result accessor invoked before a run
// completed. Recoverable: call again after Run returns.
type NotAvailableError struct {
	What string
}

func (e *NotAvailableError) Error() string {
	return e.What + " not available: pipeline has not completed a run"
}
