package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/llm"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/ratelimit"
	"github.com/vytor/tenxcards/internal/repository"
	"github.com/vytor/tenxcards/internal/validation"
)

// GenerationService handles LLM flashcard generation
type GenerationService interface {
	Generate(ctx context.Context, userID string, cmd models.CreateGenerationCommand) (*models.GenerationResponse, error)
}

type generationService struct {
	generations repository.GenerationRepository
	generator   llm.Generator
	budget      *ratelimit.Limiter
	validator   *validation.Validator
	now         func() time.Time
}

// NewGenerationService creates a new GenerationService. budget enforces the
// per-user hourly generation allowance; nil disables it.
func NewGenerationService(generations repository.GenerationRepository, generator llm.Generator, budget *ratelimit.Limiter, v *validation.Validator) GenerationService {
	return &generationService{
		generations: generations,
		generator:   generator,
		budget:      budget,
		validator:   v,
		now:         time.Now,
	}
}

func (s *generationService) Generate(ctx context.Context, userID string, cmd models.CreateGenerationCommand) (*models.GenerationResponse, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)

	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	tv := validation.ValidateText(cmd.SourceText)
	if !tv.IsValid {
		err := errors.NewValidationError("source_text", "length", "Text length not between 1000-10000 characters")
		err.Details["min"] = validation.MinTextLength
		err.Details["max"] = validation.MaxTextLength
		err.Details["actual"] = tv.Length
		return nil, err
	}

	if s.budget != nil {
		if _, err := s.budget.Allow(ctx, userID); err != nil {
			if errors.HasCode(err, errors.ErrCodeRateLimit) {
				log.Info("generation budget exhausted")
				return nil, err
			}
			log.Warn("generation budget unavailable, continuing: %v", err)
		}
	}

	hash := hashText(cmd.SourceText)
	length := tv.Length

	start := s.now()
	proposals, err := s.generator.Generate(ctx, cmd.Model, cmd.SourceText)
	duration := s.now().Sub(start).Milliseconds()
	if err != nil {
		log.Error("llm generation failed after %dms: %v", duration, err)
		entry := models.GenerationErrorLog{
			UserID:           userID,
			Model:            cmd.Model,
			SourceTextHash:   hash,
			SourceTextLength: length,
			ErrorCode:        errors.ErrCodeGenerationFailed,
			ErrorMessage:     err.Error(),
		}
		if logErr := s.generations.InsertErrorLog(ctx, entry); logErr != nil {
			log.Warn("failed to record generation error: %v", logErr)
		}
		return nil, errors.NewGenerationFailedError(err)
	}

	gen, err := s.generations.Insert(ctx, models.Generation{
		UserID:             userID,
		Model:              cmd.Model,
		GeneratedCount:     len(proposals),
		SourceTextHash:     hash,
		SourceTextLength:   length,
		GenerationDuration: duration,
	})
	if err != nil {
		log.Error("failed to save generation: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("generation %d created with %d proposals in %dms", gen.ID, len(proposals), duration)
	return &models.GenerationResponse{Generation: gen, ProposedFlashcards: proposals}, nil
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
