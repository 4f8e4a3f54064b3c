package repository

import (
	"context"
	"errors"

	"github.com/vytor/tenxcards/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// FlashcardRepository handles flashcard data access
type FlashcardRepository interface {
	Insert(ctx context.Context, card models.Flashcard) (models.Flashcard, error)
	// InsertBatch stores all cards in one transaction and returns them with
	// their ids set.
	InsertBatch(ctx context.Context, cards []models.Flashcard) ([]models.Flashcard, error)
	List(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, error)
}

// GenerationRepository handles generation data access
type GenerationRepository interface {
	Insert(ctx context.Context, g models.Generation) (models.Generation, error)
	// Owner returns the user id owning a generation, or ErrNotFound.
	Owner(ctx context.Context, id int64) (string, error)
	IncrementAccepted(ctx context.Context, id int64, unedited, edited int) error
	InsertErrorLog(ctx context.Context, entry models.GenerationErrorLog) error
}
