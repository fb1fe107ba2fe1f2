package snapshot

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"time"

	"github.com/vestwatch/vestwatch/pkg/ops"
)

// By selects what IterOptions.Start and Stop are compared against.
type By int

const (
	ByBlock By = iota
	ByIndex
)

// IterOptions bound a walk over the raw operation log. All bounds are
// inclusive and optional.
type IterOptions struct {
	By    By
	Start *uint64
	Stop  *uint64
	// From and To bound the operation timestamp when non-zero.
	From time.Time
	To   time.Time

	Include []string
	Exclude []string
}

func (o IterOptions) match(op ops.Operation) bool {
	pos := op.Block
	if o.By == ByIndex {
		pos = op.Index
	}
	if o.Start != nil && pos < *o.Start {
		return false
	}
	if o.Stop != nil && pos > *o.Stop {
		return false
	}
	if !o.From.IsZero() && op.Timestamp.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && op.Timestamp.After(o.To) {
		return false
	}
	if slices.Contains(o.Exclude, op.Type) {
		return false
	}
	return len(o.Include) == 0 || slices.Contains(o.Include, op.Type)
}

// Ops yields the buffered raw operations matching opts in the order they
// were appended. Each range over the sequence starts from the beginning.
func (s *AccountSnapshot) Ops(opts IterOptions) iter.Seq[ops.Operation] {
	return func(yield func(ops.Operation) bool) {
		for _, op := range s.log {
			if !opts.match(op) {
				continue
			}
			if !yield(op) {
				return
			}
		}
	}
}

// Search returns the operations matching opts whose values match pattern.
// Values are rendered as a JSON array, as by ops.Operation.SearchText.
func (s *AccountSnapshot) Search(pattern string, opts IterOptions) ([]ops.Operation, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("search pattern: %w", err)
	}
	var found []ops.Operation
	for op := range s.Ops(opts) {
		if re.MatchString(op.SearchText()) {
			found = append(found, op)
		}
	}
	return found, nil
}
