package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/tenxcards/internal/models"
)

// MockGenerator is a mock implementation of llm.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, model, sourceText string) ([]models.ProposedFlashcard, error) {
	args := m.Called(ctx, model, sourceText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProposedFlashcard), args.Error(1)
}
