package metrigo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/metrigo/index"
)

var (
	// ErrUnsupportedCombination is returned when the requested method and
	// algorithm cannot be combined, before any step is produced.
	ErrUnsupportedCombination = errors.New("unsupported method/algorithm combination")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = index.ErrInvalidK

	// ErrInvalidRadius is returned when a range radius is negative.
	ErrInvalidRadius = index.ErrInvalidRadius

	// ErrNilStore is returned when no point store is supplied.
	ErrNilStore = errors.New("nil point store")

	// ErrNilIndex is returned when no index is supplied.
	ErrNilIndex = errors.New("nil index")
)

// ErrMethodMismatch indicates that the supplied index instance does not
// implement the requested method.
type ErrMethodMismatch struct {
	Method Method
	Index  string
}

func (e *ErrMethodMismatch) Error() string {
	return fmt.Sprintf("index %s does not implement method %s", e.Index, e.Method)
}

func (e *ErrMethodMismatch) Unwrap() error { return ErrUnsupportedCombination }
