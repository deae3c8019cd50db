package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"notesapp/internal/note/model"
	"notesapp/pkg/logger"
)

// invalid_text_representation, raised for ids that are not uuids.
const pqInvalidTextRepresentation = "22P02"

const noteColumns = "id, text, user_id, created_at, updated_at"

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.Text, &n.UserID, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// Create inserts a note. The database assigns both timestamps.
func (r *NoteRepository) Create(ctx context.Context, id, userID, text string) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO notes (id, text, user_id, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING `+noteColumns,
		id, text, userID,
	)

	n, err := scanNote(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note for user %s: %v", userID, err)
		return model.Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) Get(ctx context.Context, id string) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = $1", id)

	n, err := scanNote(row)
	if err != nil {
		if isNotFound(err) {
			return model.Note{}, model.ErrNoteNotFound
		}
		logger.Sugar.Errorf("Failed to get note %s: %v", id, err)
		return model.Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// ListByUser returns every note owned by userID in no particular order.
func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE user_id = $1", userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %s: %v", userID, err)
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

func (r *NoteRepository) UpdateText(ctx context.Context, id, text string) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE notes SET text = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+noteColumns,
		text, id,
	)

	n, err := scanNote(row)
	if err != nil {
		if isNotFound(err) {
			return model.Note{}, model.ErrNoteNotFound
		}
		logger.Sugar.Errorf("Failed to update note %s: %v", id, err)
		return model.Note{}, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		if isNotFound(err) {
			return model.ErrNoteNotFound
		}
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return fmt.Errorf("delete note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrNoteNotFound
	}

	return nil
}

func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}

	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation
}
