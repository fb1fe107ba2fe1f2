package snapshot

import (
	"errors"
	"fmt"
	"time"
)

// ErrSeriesNotBuilt is returned by series accessors before the matching
// builder has run.
var ErrSeriesNotBuilt = errors.New("series not built")

// ConfigError reports invalid static configuration. It is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedOperationError aborts a build on the first operation of a known
// type whose body cannot be decoded.
type MalformedOperationError struct {
	Type      string
	Timestamp time.Time
	Block     uint64
	Index     uint64
	Err       error
}

func (e *MalformedOperationError) Error() string {
	return fmt.Sprintf("malformed %s operation at block %d (index %d, %s): %v",
		e.Type, e.Block, e.Index, e.Timestamp.Format(time.RFC3339), e.Err)
}

func (e *MalformedOperationError) Unwrap() error { return e.Err }
