package table

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn is matched by every UnknownColumnError.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidArgument marks caller input errors such as a non-positive
	// row count or chunk size. It never describes the table itself.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRowWidth is returned when a row's cell count differs from the header count.
	ErrRowWidth = errors.New("row width does not match header")
)

// UnknownColumnError names a column that is absent from the current headers.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

// Is lets errors.Is(err, ErrUnknownColumn) match.
func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}
