package segment

import (
	"errors"
	"fmt"
)

// ErrNoDocument is returned by operations that need a loaded document.
var ErrNoDocument = errors.New("no document loaded")

type ValidationReason string

const (
	ReasonOutOfBounds    ValidationReason = "out_of_bounds"
	ReasonInvertedBounds ValidationReason = "inverted_bounds"
)

// ValidationError describes a rejected range. The plan and history are left
// untouched whenever one is returned.
type ValidationError struct {
	Reason    ValidationReason
	Start     int
	End       int
	PageCount int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonInvertedBounds:
		return fmt.Sprintf("range %d-%d is inverted", e.Start, e.End)
	default:
		return fmt.Sprintf("range %d-%d is out of bounds for %d pages", e.Start, e.End, e.PageCount)
	}
}

// IsValidation reports whether err is a range validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
