package faults

import (
	"errors"
	"fmt"
)

// Severity drives how the pipeline reacts to a failure
// ⭐ SSOT: 실패 등급 분류는 이 패키지에서만
type Severity string

const (
	// SeverityError isolates the current unit of work (one symbol, one stage)
	SeverityError Severity = "error"
	// SeverityDegraded continues the batch with the degraded flag raised
	SeverityDegraded Severity = "degraded"
	// SeveritySkip removes exactly one symbol, degraded flag untouched
	SeveritySkip Severity = "skip"
	// SeverityFatal stops the entire batch
	SeverityFatal Severity = "fatal"
)

// Machine-readable error codes. The set is closed: anything outside it is
// promoted to fatal by Classify.
const (
	CodeContract      = "CONTRACT_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeData          = "DATA_ERROR"
	CodeExternalData  = "EXTERNAL_DATA_ERROR"
	CodeExecution     = "EXECUTION_ERROR"
	CodeSummary       = "SUMMARY_ERROR"
	CodeSkipSymbol    = "SKIP_SYMBOL"
	CodeFatal         = "FATAL_PIPELINE_ERROR"
)

// Error is the single error type crossing stage boundaries.
// Context carries structured diagnostics (symbol, stage, policy id, ...).
type Error struct {
	Code     string
	Message  string
	Severity Severity
	Context  map[string]interface{}
	cause    error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.cause
}

// WithContext returns a copy with merged context; the receiver is not mutated
func (e *Error) WithContext(kv map[string]interface{}) *Error {
	merged := make(map[string]interface{}, len(e.Context)+len(kv))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range kv {
		merged[k] = v
	}
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Severity: e.Severity,
		Context:  merged,
		cause:    e.cause,
	}
}

// WithCause returns a copy wrapping the underlying error
func (e *Error) WithCause(cause error) *Error {
	clone := e.WithContext(nil)
	clone.cause = cause
	return clone
}

func newError(code string, severity Severity, msg string) *Error {
	return &Error{
		Code:     code,
		Message:  msg,
		Severity: severity,
		Context:  map[string]interface{}{},
	}
}

// ContractViolation marks a schema/invariant broken by the system itself.
// Always fatal: an inconsistent artifact must never be emitted.
func ContractViolation(msg string) *Error {
	return newError(CodeContract, SeverityFatal, msg)
}

// Configuration marks structurally invalid resolved configuration
func Configuration(msg string) *Error {
	return newError(CodeConfiguration, SeverityFatal, msg)
}

// Data marks missing/malformed source data for one symbol
func Data(msg string) *Error {
	return newError(CodeData, SeverityDegraded, msg)
}

// ExternalData marks a failed external fetch (network, rate limit, timeout)
func ExternalData(msg string) *Error {
	return newError(CodeExternalData, SeverityDegraded, msg)
}

// Execution marks an unexpected numeric/shape failure in computation
func Execution(msg string) *Error {
	return newError(CodeExecution, SeverityError, msg)
}

// Summary marks a failure of the non-authoritative summary layer.
// Degraded by definition: the decision numbers are kept, only the prose falls
// back to a template.
func Summary(msg string) *Error {
	return newError(CodeSummary, SeverityDegraded, msg)
}

// SkipSymbol is the explicit decision to omit one symbol from the batch
func SkipSymbol(msg string) *Error {
	return newError(CodeSkipSymbol, SeveritySkip, msg)
}

// Fatal stops the entire batch
func Fatal(msg string) *Error {
	return newError(CodeFatal, SeverityFatal, msg)
}

// Classify maps any error onto the closed taxonomy. Unclassified errors are
// promoted to fatal: an unrecognized failure is an implementation gap, not a
// data problem, and must never be silently downgraded.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return Fatal(fmt.Sprintf("unclassified error: %v", err)).WithCause(err)
}

// SeverityOf returns the severity an error resolves to after classification
func SeverityOf(err error) Severity {
	return Classify(err).Severity
}

// IsFatal reports whether the error aborts the whole batch
func IsFatal(err error) bool {
	return SeverityOf(err) == SeverityFatal
}

// IsSkip reports whether the error removes exactly one symbol
func IsSkip(err error) bool {
	return SeverityOf(err) == SeveritySkip
}

// IsIsolable reports whether the error is absorbed at the stage boundary
// (symbol removed, batch continues)
func IsIsolable(err error) bool {
	switch SeverityOf(err) {
	case SeveritySkip, SeverityDegraded, SeverityError:
		return true
	default:
		return false
	}
}

// RaisesDegraded reports whether absorbing the error must raise the
// monotonic degraded flag
func RaisesDegraded(err error) bool {
	switch SeverityOf(err) {
	case SeverityDegraded, SeverityError:
		return true
	default:
		return false
	}
}
