package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/repository"
	"github.com/vytor/tenxcards/internal/repository/sqlite"
	"github.com/vytor/tenxcards/internal/testutil"
)

type GenerationRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.GenerationRepository
}

func (s *GenerationRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewGenerationRepository(s.db)
}

func (s *GenerationRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *GenerationRepositorySuite) TestInsertAndOwner() {
	ctx := context.Background()
	g, err := s.repo.Insert(ctx, models.Generation{
		UserID:             "user-1",
		Model:              "openai/gpt-4",
		GeneratedCount:     5,
		SourceTextHash:     "hash",
		SourceTextLength:   2500,
		GenerationDuration: 12,
	})
	s.Require().NoError(err)
	s.Assert().Greater(g.ID, int64(0))
	s.Assert().Nil(g.AcceptedUneditedCount)

	owner, err := s.repo.Owner(ctx, g.ID)
	s.Require().NoError(err)
	s.Assert().Equal("user-1", owner)
}

func (s *GenerationRepositorySuite) TestOwnerNotFound() {
	_, err := s.repo.Owner(context.Background(), 999)
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func (s *GenerationRepositorySuite) TestIncrementAccepted() {
	ctx := context.Background()
	g, err := s.repo.Insert(ctx, models.Generation{UserID: "u", Model: "m", SourceTextHash: "h", SourceTextLength: 1000})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.IncrementAccepted(ctx, g.ID, 2, 1))
	s.Require().NoError(s.repo.IncrementAccepted(ctx, g.ID, 1, 0))

	var unedited, edited sql.NullInt64
	s.Require().NoError(s.db.QueryRowContext(ctx,
		`SELECT accepted_unedited_count, accepted_edited_count FROM generations WHERE id = ?`, g.ID).Scan(&unedited, &edited))
	s.Assert().Equal(int64(3), unedited.Int64)
	s.Assert().Equal(int64(1), edited.Int64)

	s.Assert().ErrorIs(s.repo.IncrementAccepted(ctx, 12345, 1, 1), repository.ErrNotFound)
}

func (s *GenerationRepositorySuite) TestInsertErrorLog() {
	ctx := context.Background()
	err := s.repo.InsertErrorLog(ctx, models.GenerationErrorLog{
		UserID:           "u",
		Model:            "m",
		SourceTextHash:   "h",
		SourceTextLength: 1200,
		ErrorCode:        "LLM_GENERATION_FAILED",
		ErrorMessage:     "upstream timeout",
	})
	s.Require().NoError(err)

	var msg string
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT error_message FROM generation_error_logs WHERE user_id = ?`, "u").Scan(&msg))
	s.Assert().Equal("upstream timeout", msg)
}

func TestGenerationRepositorySuite(t *testing.T) {
	suite.Run(t, new(GenerationRepositorySuite))
}
