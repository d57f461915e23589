package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors
// returned by Dispatcher.Invoke.
var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpstreamHTTP    = errors.New("upstream http error")
)

// UnknownToolError is returned when no tool
// matches the requested name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// Is implements errors.Is.
func (e *UnknownToolError) Is(err error) bool {
	return err == ErrUnknownTool
}

// MissingArgumentError is returned when a required
// argument is absent from the call.
type MissingArgumentError struct {
	Tool     string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument '%s' for tool %s", e.Argument, e.Tool)
}

// Is implements errors.Is.
func (e *MissingArgumentError) Is(err error) bool {
	return err == ErrMissingArgument
}

// InvalidArgumentError is returned when the arguments
// are present but do not satisfy the tool input schema.
type InvalidArgumentError struct {
	Tool string
	Err  error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, e.Err)
}

// Is implements errors.Is.
func (e *InvalidArgumentError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// Unwrap returns the validation error.
func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

// UpstreamHTTPError is returned by fetch when the remote
// server answers with a failing status.
type UpstreamHTTPError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.StatusCode, e.URL)
}

// Is implements errors.Is.
func (e *UpstreamHTTPError) Is(err error) bool {
	return err == ErrUpstreamHTTP
}
