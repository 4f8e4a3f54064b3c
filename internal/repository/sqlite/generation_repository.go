package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/repository"
)

type generationRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewGenerationRepository creates a new GenerationRepository implementation
func NewGenerationRepository(db *sql.DB) repository.GenerationRepository {
	return &generationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *generationRepository) Insert(ctx context.Context, g models.Generation) (models.Generation, error) {
	log := logger.FromContext(ctx).WithPrefix("generation_repo")
	log.Debug("inserting generation: user_id=%s, model=%s, count=%d", g.UserID, g.Model, g.GeneratedCount)

	now := r.now()
	sqlStr, args, err := sqlBuilder.Insert("generations").
		Columns("user_id", "model", "generated_count", "source_text_hash", "source_text_length", "generation_duration", "created_at", "updated_at").
		Values(g.UserID, g.Model, g.GeneratedCount, g.SourceTextHash, g.SourceTextLength, g.GenerationDuration, now, now).
		ToSql()
	if err != nil {
		return models.Generation{}, err
	}

	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to insert generation: %v", err)
		return models.Generation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Generation{}, err
	}
	g.ID = id
	g.CreatedAt = now
	g.UpdatedAt = now
	g.AcceptedUneditedCount = nil
	g.AcceptedEditedCount = nil
	log.Debug("generation inserted: id=%d", id)
	return g, nil
}

func (r *generationRepository) Owner(ctx context.Context, id int64) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM generations WHERE id = ?`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.FromContext(ctx).WithPrefix("generation_repo").Debug("generation not found: id=%d", id)
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *generationRepository) IncrementAccepted(ctx context.Context, id int64, unedited, edited int) error {
	log := logger.FromContext(ctx).WithPrefix("generation_repo")
	log.Debug("incrementing accepted counts: id=%d, unedited=%d, edited=%d", id, unedited, edited)

	sqlStr, args, err := sqlBuilder.Update("generations").
		Set("accepted_unedited_count", squirrel.Expr("COALESCE(accepted_unedited_count, 0) + ?", unedited)).
		Set("accepted_edited_count", squirrel.Expr("COALESCE(accepted_edited_count, 0) + ?", edited)).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to update generation counts: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *generationRepository) InsertErrorLog(ctx context.Context, e models.GenerationErrorLog) error {
	sqlStr, args, err := sqlBuilder.Insert("generation_error_logs").
		Columns("user_id", "model", "source_text_hash", "source_text_length", "error_code", "error_message", "created_at").
		Values(e.UserID, e.Model, e.SourceTextHash, e.SourceTextLength, e.ErrorCode, e.ErrorMessage, r.now()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		logger.FromContext(ctx).WithPrefix("generation_repo").Error("failed to insert generation error log: %v", err)
		return err
	}
	return nil
}
