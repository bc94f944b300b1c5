package domain

import "fmt"

// Kind tags the error categories the core distinguishes for recovery.
type Kind string

const (KindInputInvalid Kind = "input_invalid"
	KindNumericsTransient Kind = "numerics_transient"
	KindNumericsFatal Kind = "numerics_fatal"
	KindRiskReject Kind = "risk_reject"
	KindExecutionExternal Kind = "execution_external"
	KindCorruption Kind = "corruption")

// CoreError is the tagged-result error carried by analyzer and evaluator
// outputs in place of exceptions (design note).
type CoreError struct {
	Kind Kind
	Reason string
	Cause error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *CoreError) Unwrap() error { return e.Cause }

func NewError(kind Kind, reason string) *CoreError {
	return &CoreError{Kind: kind, Reason: reason}
}

func WrapError(kind Kind, reason string, cause error) *CoreError {
	return &CoreError{Kind: kind, Reason: reason, Cause: cause}
}

// IsFatal reports whether the error kind requires process termination
// rather than local recovery.
func (e *CoreError) IsFatal() bool {
	return e.Kind == KindCorruption
}
