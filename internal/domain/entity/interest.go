package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxInterestNameLength mirrors the unique name column width.
const MaxInterestNameLength = 100

// Interest is a user-selectable topic. Its name doubles as the news search keyword
// and as the case-insensitive tag matched against article text.
type Interest struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Key returns the case-folded name used for matching and lookups.
func (i Interest) Key() string {
	return strings.ToLower(strings.TrimSpace(i.Name))
}

// Validate checks the fields required to register an interest.
func (i *Interest) Validate() error {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > MaxInterestNameLength {
		return &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("name must not exceed %d characters", MaxInterestNameLength),
		}
	}
	return nil
}

// UserInterest associates a user with one interest. The pair is unique.
type UserInterest struct {
	UserID     int64
	InterestID int64
	CreatedAt  time.Time
}
