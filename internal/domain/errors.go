package domain

import (
	"errors"
	"fmt"
)

// ConfigError indicates a missing credential or schema identifier. It is fatal
// to the run and is raised before any network call is attempted.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Key)
}

// RemoteError indicates a non-2xx HTTP response from the extraction service.
type RemoteError struct {
	Operation string
	Status    int
	Body      string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote service returned HTTP %d: %s", e.Operation, e.Status, e.Body)
}

// TransportError indicates a network-level failure (DNS, connection reset)
// before any HTTP status was received.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IOFault indicates a local filesystem failure during staging or archiving.
// The file state is left consistent with the last successful transition.
type IOFault struct {
	Op   string
	Path string
	Err  error
}

func (e *IOFault) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOFault) Unwrap() error {
	return e.Err
}

var (
	// ErrPersistenceDegraded signals that the tabular store could not be merged
	// and was overwritten with only the newest record. The run continues; the
	// caller must surface this distinctly from a normal append.
	ErrPersistenceDegraded = errors.New("tabular store merge failed; store rewritten with new record only")

	// ErrNoStandardization signals that the batch standardize call returned no
	// job identifiers.
	ErrNoStandardization = errors.New("no standardization id returned")
)
