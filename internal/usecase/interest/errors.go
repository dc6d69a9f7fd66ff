// Package interest implements the Interest Registry: the set of topics users
// subscribe to, which doubles as the news search keyword list and the tag set
// matched against article text.
package interest

import (
	"errors"
	"fmt"
)

var (
	// ErrInterestNotFound indicates that the requested interest does not exist.
	ErrInterestNotFound = errors.New("interest not found")

	// ErrDuplicateInterest indicates that an interest with the same name
	// (compared case-insensitively) already exists.
	ErrDuplicateInterest = errors.New("interest with this name already exists")
)

// NameNotFoundError reports a lookup by name that matched nothing.
type NameNotFoundError struct {
	Name string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("Interest '%s' not found.", e.Name)
}

func (e *NameNotFoundError) Unwrap() error { return ErrInterestNotFound }
