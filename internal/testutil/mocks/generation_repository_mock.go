package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/tenxcards/internal/models"
)

// MockGenerationRepository is a mock implementation of repository.GenerationRepository
type MockGenerationRepository struct {
	mock.Mock
}

func (m *MockGenerationRepository) Insert(ctx context.Context, g models.Generation) (models.Generation, error) {
	args := m.Called(ctx, g)
	return args.Get(0).(models.Generation), args.Error(1)
}

func (m *MockGenerationRepository) Owner(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockGenerationRepository) IncrementAccepted(ctx context.Context, id int64, unedited, edited int) error {
	args := m.Called(ctx, id, unedited, edited)
	return args.Error(0)
}

func (m *MockGenerationRepository) InsertErrorLog(ctx context.Context, entry models.GenerationErrorLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
