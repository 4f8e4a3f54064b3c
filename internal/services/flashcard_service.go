package services

import (
	"context"
	stderrors "errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/repository"
	"github.com/vytor/tenxcards/internal/validation"
)

// Listing bounds for GET /api/flashcards.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// FlashcardService handles flashcard-related business logic
type FlashcardService interface {
	Create(ctx context.Context, userID string, cmd models.CreateFlashcardCommand) (*models.Flashcard, error)
	CreateBatch(ctx context.Context, userID string, cmd models.BatchCreateFlashcardsCommand) (*models.BatchCreateFlashcardsResponse, error)
	List(ctx context.Context, userID string, filter models.FlashcardFilter) (*models.FlashcardList, error)
}

type flashcardService struct {
	flashcards  repository.FlashcardRepository
	generations repository.GenerationRepository
	validator   *validation.Validator
	policy      *bluemonday.Policy
}

// NewFlashcardService creates a new FlashcardService
func NewFlashcardService(flashcards repository.FlashcardRepository, generations repository.GenerationRepository, v *validation.Validator) FlashcardService {
	return &flashcardService{
		flashcards:  flashcards,
		generations: generations,
		validator:   v,
		policy:      bluemonday.StrictPolicy(),
	}
}

// Create stores a manual flashcard with all markup stripped.
func (s *flashcardService) Create(ctx context.Context, userID string, cmd models.CreateFlashcardCommand) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)

	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	clean := models.CreateFlashcardCommand{Front: s.sanitize(cmd.Front), Back: s.sanitize(cmd.Back)}
	if err := s.validator.Struct(clean); err != nil {
		return nil, err
	}

	card, err := s.flashcards.Insert(ctx, models.Flashcard{
		Front:  clean.Front,
		Back:   clean.Back,
		Source: models.SourceManual,
		UserID: userID,
	})
	if err != nil {
		log.Error("failed to create flashcard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Debug("manual flashcard %d created", card.ID)
	return &card, nil
}

// CreateBatch stores reviewed proposals for a generation owned by userID and
// updates the generation's accepted counters.
func (s *flashcardService) CreateBatch(ctx context.Context, userID string, cmd models.BatchCreateFlashcardsCommand) (*models.BatchCreateFlashcardsResponse, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{"user_id": userID, "generation_id": cmd.GenerationID})

	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	owner, err := s.generations.Owner(ctx, cmd.GenerationID)
	if stderrors.Is(err, repository.ErrNotFound) || (err == nil && owner != userID) {
		log.Warn("generation missing or owned by another user")
		return nil, errors.NewNotFoundError("generation", cmd.GenerationID)
	}
	if err != nil {
		log.Error("failed to look up generation owner: %v", err)
		return nil, errors.NewInternalError(err)
	}

	genID := cmd.GenerationID
	rows := make([]models.Flashcard, len(cmd.Flashcards))
	var unedited, edited int
	for i, item := range cmd.Flashcards {
		rows[i] = models.Flashcard{
			Front:        strings.TrimSpace(item.Front),
			Back:         strings.TrimSpace(item.Back),
			Source:       item.Source,
			GenerationID: &genID,
			UserID:       userID,
		}
		if item.Source == models.SourceAIEdited {
			edited++
		} else {
			unedited++
		}
	}

	created, err := s.flashcards.InsertBatch(ctx, rows)
	if err != nil {
		log.Error("failed to insert flashcard batch: %v", err)
		return nil, errors.NewInternalError(err)
	}

	if err := s.generations.IncrementAccepted(ctx, genID, unedited, edited); err != nil {
		log.Warn("failed to update generation counters: %v", err)
	}

	log.Info("saved %d flashcards (%d unedited, %d edited)", len(created), unedited, edited)
	return &models.BatchCreateFlashcardsResponse{CreatedCount: len(created), Flashcards: created}, nil
}

// List returns one page of the user's flashcards. One extra row is read to
// tell whether another page exists.
func (s *flashcardService) List(ctx context.Context, userID string, filter models.FlashcardFilter) (*models.FlashcardList, error) {
	switch {
	case filter.Limit == 0:
		filter.Limit = DefaultListLimit
	case filter.Limit < 0 || filter.Limit > MaxListLimit:
		return nil, errors.NewValidationError("limit", "range", "limit must be between 1 and 100")
	}
	if filter.Source != "" && filter.Source != models.SourceManual &&
		filter.Source != models.SourceAIFull && filter.Source != models.SourceAIEdited {
		return nil, errors.NewValidationError("source", "oneof", "source must be one of: manual, ai-full, ai-edited")
	}

	pageSize := filter.Limit
	filter.UserID = userID
	filter.Limit = pageSize + 1

	cards, err := s.flashcards.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list flashcards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	out := &models.FlashcardList{Data: cards}
	if len(cards) > pageSize {
		out.Data = cards[:pageSize]
		next := out.Data[pageSize-1].ID
		out.Pagination = models.Pagination{NextCursor: &next, HasMore: true}
	}
	if out.Data == nil {
		out.Data = []models.Flashcard{}
	}
	return out, nil
}

// maxSanitizePasses bounds the strip/unescape loop for nested encodings.
const maxSanitizePasses = 8

// sanitize strips markup and stores plain text. Stripping and unescaping
// repeat until the text is stable, so entity-encoded markup cannot come back
// as live tags. Input that never settles is returned still escaped.
func (s *flashcardService) sanitize(v string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			return strings.TrimSpace(v)
		}
		v = next
	}
	return strings.TrimSpace(s.policy.Sanitize(v))
}
