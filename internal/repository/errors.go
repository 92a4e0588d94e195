package repository

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable is returned, wrapped, whenever the backing store
// could not complete an operation. Callers match it with errors.Is.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrNonPositiveDelta rejects accumulator contributions that are not > 0
var ErrNonPositiveDelta = errors.New("minutes delta must be positive")

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
