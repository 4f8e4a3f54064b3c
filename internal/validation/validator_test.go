package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/validation"
)

func TestValidator_CreateFlashcard(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name       string
		cmd        models.CreateFlashcardCommand
		field      string
		constraint string
	}{
		{"blank front", models.CreateFlashcardCommand{Front: "  ", Back: "b"}, "front", "notblank"},
		{"long back", models.CreateFlashcardCommand{Front: "f", Back: strings.Repeat("b", 501)}, "back", "maxrunes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.cmd)
			require.Error(t, err)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, tt.constraint, appErr.Constraint)
		})
	}

	assert.NoError(t, v.Struct(models.CreateFlashcardCommand{Front: strings.Repeat("f", 200), Back: strings.Repeat("b", 500)}))
}

func TestValidator_BatchReportsItemPath(t *testing.T) {
	v := validation.New()
	cmd := models.BatchCreateFlashcardsCommand{
		GenerationID: 7,
		Flashcards: []models.BatchFlashcardItem{
			{Front: "ok", Back: "ok", Source: models.SourceAIFull},
			{Front: strings.Repeat("x", 201), Back: "ok", Source: models.SourceAIEdited},
		},
	}

	err := v.Struct(cmd)
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "flashcards[1].front", appErr.Field)
	assert.Contains(t, appErr.Message, "200")
}

func TestValidator_BatchRejectsManualSource(t *testing.T) {
	v := validation.New()
	cmd := models.BatchCreateFlashcardsCommand{
		GenerationID: 1,
		Flashcards:   []models.BatchFlashcardItem{{Front: "f", Back: "b", Source: models.SourceManual}},
	}

	appErr, ok := errors.As(v.Struct(cmd))
	require.True(t, ok)
	assert.Equal(t, "flashcards[0].source", appErr.Field)
	assert.Equal(t, "oneof", appErr.Constraint)
}

func TestValidator_BatchRequiresItems(t *testing.T) {
	v := validation.New()

	appErr, ok := errors.As(v.Struct(models.BatchCreateFlashcardsCommand{GenerationID: 1}))
	require.True(t, ok)
	assert.Equal(t, "flashcards", appErr.Field)
}
