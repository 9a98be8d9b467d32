package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrSymbolNotFound  = &Error{Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"}
	ErrNoData          = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInvalidInterval = &Error{Code: "INVALID_INTERVAL", Message: "unsupported candle interval"}
	ErrNotFound        = &Error{Code: "NOT_FOUND", Message: "not found"}
	ErrInvalidInput    = &Error{Code: "INVALID_INPUT", Message: "invalid input"}

	// Provider errors
	ErrProviderFailed  = &Error{Code: "PROVIDER_FAILED", Message: "data provider failed"}
	ErrProviderTimeout = &Error{Code: "PROVIDER_TIMEOUT", Message: "data provider timeout"}

	// Analysis errors
	ErrAnalysisFailed   = &Error{Code: "ANALYSIS_FAILED", Message: "analysis failed"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}

	// Backtest errors
	ErrBacktestFailed = &Error{Code: "BACKTEST_FAILED", Message: "backtest failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}
)
