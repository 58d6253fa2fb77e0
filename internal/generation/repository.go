package generation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// ErrGenerationNotFound is returned when a generation is not found
var ErrGenerationNotFound = errors.New("generation not found")

// Repository defines the interface for generation persistence operations
type Repository interface {
	CreateGeneration(ctx context.Context, gen *Generation) error
	GetGeneration(ctx context.Context, id string) (*Generation, error)
	ListGenerations(ctx context.Context, projectID string) ([]*Generation, error)
	UpdateGenerationStatus(ctx context.Context, id, status, errMsg string, completedAt *time.Time) error
	CreateFiles(ctx context.Context, files []*GeneratedFile) error
	ListFiles(ctx context.Context, generationID string) ([]*GeneratedFile, error)
}

// SQLRepository implements Repository using SQLite
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new generation SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) Repository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

var generationColumns = []string{
	"id",
	"project_id",
	"provider",
	"model",
	"prompt",
	"status",
	"error",
	"created_at",
	"completed_at",
}

var fileColumns = []string{
	"id",
	"generation_id",
	"file_path",
	"content",
	"purpose",
	"status",
	"created_at",
}

// CreateGeneration saves a new generation record
func (r *SQLRepository) CreateGeneration(ctx context.Context, gen *Generation) error {
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now()
	}

	var completedAt interface{}
	if gen.CompletedAt != nil {
		completedAt = gen.CompletedAt.UTC().Format(time.RFC3339)
	}

	query, args, err := r.builder.
		Insert("generations").
		Columns(generationColumns...).
		Values(
			gen.ID,
			gen.ProjectID,
			gen.Provider,
			gen.Model,
			gen.Prompt,
			gen.Status,
			gen.Error,
			gen.CreatedAt.UTC().Format(time.RFC3339),
			completedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting generation: %w", err)
	}

	r.logger.Info("Created generation", "id", gen.ID, "project_id", gen.ProjectID, "provider", gen.Provider)
	return nil
}

// GetGeneration retrieves a generation by its ID
func (r *SQLRepository) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	query, args, err := r.builder.
		Select(generationColumns...).
		From("generations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	gen, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGenerationNotFound
		}
		return nil, fmt.Errorf("scanning generation: %w", err)
	}

	return gen, nil
}

// ListGenerations returns all generations for a project, newest first
func (r *SQLRepository) ListGenerations(ctx context.Context, projectID string) ([]*Generation, error) {
	query, args, err := r.builder.
		Select(generationColumns...).
		From("generations").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying for generations: %w", err)
	}
	defer rows.Close()

	var gens []*Generation
	for rows.Next() {
		gen, err := scanGenerationFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		gens = append(gens, gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return gens, nil
}

// UpdateGenerationStatus updates the status, error message and
// completion time of a generation
func (r *SQLRepository) UpdateGenerationStatus(ctx context.Context, id, status, errMsg string, completedAt *time.Time) error {
	update := r.builder.
		Update("generations").
		Set("status", status).
		Set("error", errMsg).
		Where(sq.Eq{"id": id})

	if completedAt != nil {
		update = update.Set("completed_at", completedAt.UTC().Format(time.RFC3339))
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating generation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGenerationNotFound
	}

	return nil
}

// CreateFiles saves a batch of generated file records in one transaction
func (r *SQLRepository) CreateFiles(ctx context.Context, files []*GeneratedFile) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range files {
		if f.CreatedAt.IsZero() {
			f.CreatedAt = time.Now()
		}

		query, args, err := r.builder.
			Insert("generated_files").
			Columns(fileColumns...).
			Values(
				f.ID,
				f.GenerationID,
				f.FilePath,
				f.Content,
				f.Purpose,
				f.Status,
				f.CreatedAt.UTC().Format(time.RFC3339),
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("building insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting file %s: %w", f.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	r.logger.Info("Saved generated files", "generation_id", files[0].GenerationID, "count", len(files))
	return nil
}

// ListFiles returns all files produced by a generation
func (r *SQLRepository) ListFiles(ctx context.Context, generationID string) ([]*GeneratedFile, error) {
	query, args, err := r.builder.
		Select(fileColumns...).
		From("generated_files").
		Where(sq.Eq{"generation_id": generationID}).
		OrderBy("file_path ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying for files: %w", err)
	}
	defer rows.Close()

	var files []*GeneratedFile
	for rows.Next() {
		f, err := scanFileFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return files, nil
}

func scanGeneration(row *sql.Row) (*Generation, error) {
	var gen Generation
	var createdAt string
	var completedAt sql.NullString

	err := row.Scan(
		&gen.ID,
		&gen.ProjectID,
		&gen.Provider,
		&gen.Model,
		&gen.Prompt,
		&gen.Status,
		&gen.Error,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := parseGenerationTimes(&gen, createdAt, completedAt); err != nil {
		return nil, err
	}
	return &gen, nil
}

func scanGenerationFromRows(rows *sql.Rows) (*Generation, error) {
	var gen Generation
	var createdAt string
	var completedAt sql.NullString

	err := rows.Scan(
		&gen.ID,
		&gen.ProjectID,
		&gen.Provider,
		&gen.Model,
		&gen.Prompt,
		&gen.Status,
		&gen.Error,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := parseGenerationTimes(&gen, createdAt, completedAt); err != nil {
		return nil, err
	}
	return &gen, nil
}

func parseGenerationTimes(gen *Generation, createdAt string, completedAt sql.NullString) error {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	gen.CreatedAt = t

	if completedAt.Valid && completedAt.String != "" {
		ct, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return fmt.Errorf("parsing completed_at: %w", err)
		}
		gen.CompletedAt = &ct
	}
	return nil
}

func scanFileFromRows(rows *sql.Rows) (*GeneratedFile, error) {
	var f GeneratedFile
	var createdAt string

	err := rows.Scan(
		&f.ID,
		&f.GenerationID,
		&f.FilePath,
		&f.Content,
		&f.Purpose,
		&f.Status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	f.CreatedAt = t

	return &f, nil
}
