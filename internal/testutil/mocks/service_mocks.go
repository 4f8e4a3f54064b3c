package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/tenxcards/internal/models"
)

// MockGenerationService is a mock implementation of services.GenerationService
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Generate(ctx context.Context, userID string, cmd models.CreateGenerationCommand) (*models.GenerationResponse, error) {
	args := m.Called(ctx, userID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationResponse), args.Error(1)
}

// MockFlashcardService is a mock implementation of services.FlashcardService
type MockFlashcardService struct {
	mock.Mock
}

func (m *MockFlashcardService) Create(ctx context.Context, userID string, cmd models.CreateFlashcardCommand) (*models.Flashcard, error) {
	args := m.Called(ctx, userID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flashcard), args.Error(1)
}

func (m *MockFlashcardService) CreateBatch(ctx context.Context, userID string, cmd models.BatchCreateFlashcardsCommand) (*models.BatchCreateFlashcardsResponse, error) {
	args := m.Called(ctx, userID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchCreateFlashcardsResponse), args.Error(1)
}

func (m *MockFlashcardService) List(ctx context.Context, userID string, filter models.FlashcardFilter) (*models.FlashcardList, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlashcardList), args.Error(1)
}
