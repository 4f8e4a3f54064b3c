package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/tenxcards/internal/models"
)

// MockAPI is a mock implementation of generate.API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Generate(ctx context.Context, cmd models.CreateGenerationCommand) (*models.GenerationResponse, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationResponse), args.Error(1)
}

func (m *MockAPI) SaveBatch(ctx context.Context, cmd models.BatchCreateFlashcardsCommand) (*models.BatchCreateFlashcardsResponse, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchCreateFlashcardsResponse), args.Error(1)
}
