package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/tenxcards/internal/db"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/repository"
)

const defaultListLimit = 50

var flashcardColumns = []string{"id", "front", "back", "source", "generation_id", "user_id", "created_at", "updated_at"}

type flashcardRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewFlashcardRepository creates a new FlashcardRepository implementation
func NewFlashcardRepository(db *sql.DB) repository.FlashcardRepository {
	return &flashcardRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *flashcardRepository) Insert(ctx context.Context, c models.Flashcard) (models.Flashcard, error) {
	cards, err := r.InsertBatch(ctx, []models.Flashcard{c})
	if err != nil {
		return models.Flashcard{}, err
	}
	return cards[0], nil
}

func (r *flashcardRepository) InsertBatch(ctx context.Context, cards []models.Flashcard) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("inserting %d flashcards", len(cards))

	if len(cards) == 0 {
		return nil, nil
	}

	now := r.now()
	out := make([]models.Flashcard, len(cards))
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO flashcards (front, back, source, generation_id, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range cards {
			res, err := stmt.ExecContext(ctx, c.Front, c.Back, c.Source, nullInt64(c.GenerationID), c.UserID, now, now)
			if err != nil {
				log.Error("failed to insert flashcard %d: %v", i, err)
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			c.ID = id
			c.CreatedAt = now
			c.UpdatedAt = now
			out[i] = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("inserted %d flashcards", len(out))
	return out, nil
}

// List returns a user's flashcards in ascending id order, starting after
// filter.Cursor.
func (r *flashcardRepository) List(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(squirrel.Eq{"user_id": filter.UserID})
	if filter.Cursor > 0 {
		query = query.Where(squirrel.Gt{"id": filter.Cursor})
	}
	if filter.Source != "" {
		query = query.Where(squirrel.Eq{"source": filter.Source})
	}
	if filter.GenerationID != nil {
		query = query.Where(squirrel.Eq{"generation_id": *filter.GenerationID})
	}
	query = query.OrderBy("id ASC").Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug("listing flashcards: user_id=%s, cursor=%d, limit=%d", filter.UserID, filter.Cursor, limit)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query flashcards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		var c models.Flashcard
		var generationID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Front, &c.Back, &c.Source, &generationID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			log.Error("failed to scan flashcard row: %v", err)
			return nil, err
		}
		c.GenerationID = int64Ptr(generationID)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
