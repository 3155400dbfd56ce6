// Package store defines the read contract over the text table.
package store

import (
	"context"
	"errors"

	"github.com/typerush/textsvc/pkg/models"
)

// ErrBackendUnavailable is returned when the underlying store call fails.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Filter selects rows by type tag and, when Length > 0, by sentence length.
type Filter struct {
	Type   string
	Length int
}

// Words selects the word pool.
func Words() Filter {
	return Filter{Type: models.ItemTypeWord}
}

// Sentences selects the sentence bucket for length.
func Sentences(length int) Filter {
	return Filter{Type: models.ItemTypeSentence, Length: length}
}

// Store scans the text table.
type Store interface {
	// Scan returns every row matching f, following pagination to the end.
	// No match is an empty result, not an error.
	Scan(ctx context.Context, f Filter) ([]models.TextItem, error)
}
