package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("item not found")
	ErrNoComposition   = errors.New("no material composition found")
	ErrEmptyCart       = errors.New("empty cart")
	ErrNoScorableItems = errors.New("no valid items scored")
	ErrUnknownProfile  = errors.New("unknown profile")
)

// NotFoundError вещь с таким кодом отсутствует; Suggestions похожие коды из каталога.
type NotFoundError struct {
	Code        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("item %q not found", e.Code)
	}
	return fmt.Sprintf("item %q not found, did you mean: %s", e.Code, strings.Join(e.Suggestions, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
