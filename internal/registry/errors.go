// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"errors"
	"fmt"
)

// ErrNoStudiesFound is returned when the registry reports zero studies for
// a query. It is a terminal empty-result outcome, not a partial result: no
// table accompanies it.
var ErrNoStudiesFound = errors.New("no studies found")

// FieldLimitError is returned when a query requests more return fields than
// the registry accepts per request. No network request is issued.
type FieldLimitError struct {
	Requested int
}

func (e *FieldLimitError) Error() string {
	return fmt.Sprintf("too many return fields: %d requested, registry accepts at most %d",
		e.Requested, maxReturnFields)
}
