package depsgraph

import (
	"errors"
	"fmt"
)

var (
	ErrMissingNode     = errors.New("relation endpoint is missing")
	ErrSelfRelation    = errors.New("relation from a node to itself")
	ErrCopyOnEvalOrder = errors.New("relation into copy-on-eval component from outside it")
)

// RelationError describes a relation the graph refused to add.
type RelationError struct {
	Kind        error
	From        string
	To          string
	Description string
}

func (e *RelationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s -> %s (%s)", e.Kind.Error(), e.From, e.To, e.Description)
}

func (e *RelationError) Unwrap() error { return e.Kind }
