package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/codegrade/internal/db"
	"github.com/kailas-cloud/codegrade/internal/domain"
	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

// SQLRepo stores questions in the questions table. Queries use $n
// placeholders, which both sqlite and pgx accept.
type SQLRepo struct {
	db *sql.DB
}

// NewSQL creates a SQL-backed question repository.
func NewSQL(sqlDB *sql.DB) *SQLRepo {
	return &SQLRepo{db: sqlDB}
}

const selectColumns = `id, title, reference_code, reference_dump, created_at, updated_at, revision`

// Create inserts a new question.
func (r *SQLRepo) Create(ctx context.Context, q domq.Question) error {
	exists, err := r.exists(ctx, q.ID())
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyExists
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO questions (`+selectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID(), q.Title(), q.ReferenceCode(), q.ReferenceDump(), q.CreatedAt(), q.UpdatedAt(), q.Revision())
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// Get loads a question by id.
func (r *SQLRepo) Get(ctx context.Context, id string) (domq.Question, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domq.Question{}, domain.ErrNotFound
		}
		return domq.Question{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return q, nil
}

// List returns all questions sorted by CreatedAt, then id.
func (r *SQLRepo) List(ctx context.Context) ([]domq.Question, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM questions ORDER BY created_at, id`)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer func() { _ = rows.Close() }()

	questions := []domq.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return questions, nil
}

// Update replaces a question whose stored revision is q.Revision()-1.
func (r *SQLRepo) Update(ctx context.Context, q domq.Question) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE questions SET title = $1, reference_code = $2, reference_dump = $3, updated_at = $4, revision = $5
		 WHERE id = $6 AND revision = $7`,
		q.Title(), q.ReferenceCode(), q.ReferenceDump(), q.UpdatedAt(), q.Revision(), q.ID(), q.Revision()-1)
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	if n > 0 {
		return nil
	}

	current, err := r.Get(ctx, q.ID())
	if err != nil {
		return err
	}
	return domain.NewRevisionConflict(current.Revision())
}

// Delete removes a question.
func (r *SQLRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLRepo) exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE id = $1`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, &db.Error{Op: db.OpSelect, Err: fmt.Errorf("exists %s: %w", id, err)}
	default:
		return true, nil
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (domq.Question, error) {
	var (
		id, title, code, dump string
		createdAt, updatedAt  int64
		revision              int
	)
	if err := row.Scan(&id, &title, &code, &dump, &createdAt, &updatedAt, &revision); err != nil {
		return domq.Question{}, err
	}
	return domq.Reconstruct(id, title, code, dump, createdAt, updatedAt, revision), nil
}
