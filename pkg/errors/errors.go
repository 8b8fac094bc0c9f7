package errors

import (
	"fmt"
)

// HermesError is the interface implemented by all host-level runtime errors.
// Script-visible exceptions are not HermesErrors; they travel as *vm.Exception.
type HermesError interface {
	error // Embed the standard error interface
	Kind() string // e.g., "OutOfMemory", "Bootstrap", "Config"
	// Message returns the specific error message without the kind prefix.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// OutOfMemoryError is reported by the heap when an allocation would exceed
// the configured cell limit.
type OutOfMemoryError struct {
	Limit int // Configured cell limit
	Live  int // Live cells at the time of the failed allocation
	What  string
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("Out of memory: cannot allocate %s (%d/%d cells live)", e.What, e.Live, e.Limit)
}
func (e *OutOfMemoryError) Kind() string { return "OutOfMemory" }
func (e *OutOfMemoryError) Message() string {
	return fmt.Sprintf("cannot allocate %s", e.What)
}
func (e *OutOfMemoryError) Unwrap() error { return nil }

// BootstrapError aborts global object construction. It names the phase that
// was running when the underlying failure happened.
type BootstrapError struct {
	Phase string
	Cause error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("Bootstrap Error in %s: %v", e.Phase, e.Cause)
}
func (e *BootstrapError) Kind() string    { return "Bootstrap" }
func (e *BootstrapError) Message() string { return fmt.Sprint(e.Cause) }
func (e *BootstrapError) Unwrap() error   { return e.Cause }

// ConfigError represents an invalid runtime configuration value.
type ConfigError struct {
	Field string
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Config Error in %s: %s", e.Field, e.Msg)
}
func (e *ConfigError) Kind() string    { return "Config" }
func (e *ConfigError) Message() string { return e.Msg }
func (e *ConfigError) Unwrap() error   { return e.Cause }
func (e *ConfigError) CausedBy(cause error) *ConfigError {
	e.Cause = cause
	return e
}
