package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/repository"
	"github.com/vytor/tenxcards/internal/services"
	"github.com/vytor/tenxcards/internal/testutil/mocks"
	"github.com/vytor/tenxcards/internal/validation"
)

func newFlashcardService() (services.FlashcardService, *mocks.MockFlashcardRepository, *mocks.MockGenerationRepository) {
	cards := new(mocks.MockFlashcardRepository)
	gens := new(mocks.MockGenerationRepository)
	return services.NewFlashcardService(cards, gens, validation.New()), cards, gens
}

func TestCreate_StripsHTML(t *testing.T) {
	ctx := context.Background()
	svc, cards, _ := newFlashcardService()

	cards.On("Insert", ctx, models.Flashcard{
		Front:  "Bold & more",
		Back:   "alert(1)",
		Source: models.SourceManual,
		UserID: "u",
	}).Return(models.Flashcard{ID: 9, Front: "Bold & more", Back: "alert(1)", Source: models.SourceManual}, nil)

	card, err := svc.Create(ctx, "u", models.CreateFlashcardCommand{
		Front: "<b>Bold</b> & more",
		Back:  "<script>alert(1)</script>alert(1)",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(9), card.ID)
	cards.AssertExpectations(t)
}

func TestCreate_StripsEntityEncodedMarkup(t *testing.T) {
	tests := []struct {
		name      string
		front     string
		back      string
		wantFront string
		wantBack  string
	}{
		{
			name:      "encoded tags",
			front:     "Q &lt;img src=x onerror=alert(1)&gt;",
			back:      "&lt;script&gt;alert(1)&lt;/script&gt;answer",
			wantFront: "Q",
			wantBack:  "answer",
		},
		{
			name:      "double encoded",
			front:     "&amp;lt;b&amp;gt;Term&amp;lt;/b&amp;gt;",
			back:      "a &lt; b",
			wantFront: "Term",
			wantBack:  "a < b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, cards, _ := newFlashcardService()
			want := models.Flashcard{Front: tt.wantFront, Back: tt.wantBack, Source: models.SourceManual, UserID: "u"}
			cards.On("Insert", ctx, want).Return(want, nil)

			card, err := svc.Create(ctx, "u", models.CreateFlashcardCommand{Front: tt.front, Back: tt.back})

			require.NoError(t, err)
			assert.NotContains(t, card.Front, "<")
			cards.AssertExpectations(t)
		})
	}
}

func TestCreate_EncodedMarkupOnlyIsBlank(t *testing.T) {
	svc, cards, _ := newFlashcardService()

	_, err := svc.Create(context.Background(), "u", models.CreateFlashcardCommand{
		Front: "&lt;img src=x onerror=alert(1)&gt;",
		Back:  "ok",
	})

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	cards.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_MarkupOnlyIsBlank(t *testing.T) {
	svc, cards, _ := newFlashcardService()

	_, err := svc.Create(context.Background(), "u", models.CreateFlashcardCommand{Front: "<img src=x>", Back: "ok"})

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "front", appErr.Field)
	cards.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	svc, cards, _ := newFlashcardService()
	cards.On("Insert", ctx, mock.Anything).Return(models.Flashcard{}, stderrors.New("locked"))

	_, err := svc.Create(ctx, "u", models.CreateFlashcardCommand{Front: "f", Back: "b"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}

func batchCommand() models.BatchCreateFlashcardsCommand {
	return models.BatchCreateFlashcardsCommand{
		GenerationID: 46,
		Flashcards: []models.BatchFlashcardItem{
			{Front: "Q0", Back: "A0", Source: models.SourceAIFull},
			{Front: "X", Back: "Y", Source: models.SourceAIEdited},
			{Front: "Q2", Back: "A2", Source: models.SourceAIFull},
		},
	}
}

func TestCreateBatch_Success(t *testing.T) {
	ctx := context.Background()
	svc, cards, gens := newFlashcardService()

	gens.On("Owner", ctx, int64(46)).Return("u", nil)
	cards.On("InsertBatch", ctx, mock.MatchedBy(func(rows []models.Flashcard) bool {
		return len(rows) == 3 && rows[1].Source == models.SourceAIEdited && *rows[0].GenerationID == 46 && rows[2].UserID == "u"
	})).Return([]models.Flashcard{{ID: 1}, {ID: 2}, {ID: 3}}, nil)
	gens.On("IncrementAccepted", ctx, int64(46), 2, 1).Return(nil)

	resp, err := svc.CreateBatch(ctx, "u", batchCommand())

	require.NoError(t, err)
	assert.Equal(t, 3, resp.CreatedCount)
	cards.AssertExpectations(t)
	gens.AssertExpectations(t)
}

func TestCreateBatch_NotOwner(t *testing.T) {
	ctx := context.Background()
	svc, cards, gens := newFlashcardService()
	gens.On("Owner", ctx, int64(46)).Return("someone-else", nil)

	_, err := svc.CreateBatch(ctx, "u", batchCommand())

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	cards.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestCreateBatch_MissingGeneration(t *testing.T) {
	ctx := context.Background()
	svc, _, gens := newFlashcardService()
	gens.On("Owner", ctx, int64(46)).Return("", repository.ErrNotFound)

	_, err := svc.CreateBatch(ctx, "u", batchCommand())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestCreateBatch_CounterFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	svc, cards, gens := newFlashcardService()
	gens.On("Owner", ctx, int64(46)).Return("u", nil)
	cards.On("InsertBatch", ctx, mock.Anything).Return([]models.Flashcard{{ID: 1}, {ID: 2}, {ID: 3}}, nil)
	gens.On("IncrementAccepted", ctx, int64(46), 2, 1).Return(stderrors.New("busy"))

	resp, err := svc.CreateBatch(ctx, "u", batchCommand())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.CreatedCount)
}

func TestCreateBatch_InvalidItem(t *testing.T) {
	svc, _, gens := newFlashcardService()
	cmd := batchCommand()
	cmd.Flashcards[2].Back = ""

	_, err := svc.CreateBatch(context.Background(), "u", cmd)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "flashcards[2].back", appErr.Field)
	gens.AssertNotCalled(t, "Owner", mock.Anything, mock.Anything)
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	svc, cards, _ := newFlashcardService()

	cards.On("List", ctx, models.FlashcardFilter{UserID: "u", Limit: 3}).
		Return([]models.Flashcard{{ID: 1}, {ID: 2}, {ID: 3}}, nil)

	page, err := svc.List(ctx, "u", models.FlashcardFilter{Limit: 2})

	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.True(t, page.Pagination.HasMore)
	require.NotNil(t, page.Pagination.NextCursor)
	assert.Equal(t, int64(2), *page.Pagination.NextCursor)
}

func TestList_DefaultsAndLastPage(t *testing.T) {
	ctx := context.Background()
	svc, cards, _ := newFlashcardService()

	cards.On("List", ctx, models.FlashcardFilter{UserID: "u", Limit: services.DefaultListLimit + 1}).Return(nil, nil)

	page, err := svc.List(ctx, "u", models.FlashcardFilter{})

	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.False(t, page.Pagination.HasMore)
	assert.Nil(t, page.Pagination.NextCursor)
}

func TestList_RejectsBadInput(t *testing.T) {
	svc, _, _ := newFlashcardService()

	_, err := svc.List(context.Background(), "u", models.FlashcardFilter{Limit: 101})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.List(context.Background(), "u", models.FlashcardFilter{Source: "imported"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}
