package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrRootEntity is returned when an operation would delete the root entity.
var ErrRootEntity = errors.New("root entity cannot be removed")

// ErrDocumentNotFound is returned by document stores when the named
// document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// SelfReferenceError reports an expression that references its own entity.
type SelfReferenceError struct {
	Entity int
	Name   string
}

func (e *SelfReferenceError) Error() string {
	return fmt.Sprintf("variable %q of entity e%d references its own entity", e.Name, e.Entity)
}

// CircularDependencyError reports an edit or a loaded document that would
// close a reference cycle. Path, when present, is one witness cycle in
// forward order with the first id repeated at the end.
type CircularDependencyError struct {
	Entity int
	Name   string
	Path   []int
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, id := range e.Path {
			parts[i] = "e" + strconv.Itoa(id)
		}
		return "circular dependency: " + strings.Join(parts, " -> ")
	}
	return fmt.Sprintf("setting variable %q of entity e%d would create a circular dependency", e.Name, e.Entity)
}
