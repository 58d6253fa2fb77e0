package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/codeforge/internal/loggy"
)

var (
	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrProjectAlreadyExists is returned when a project already exists
	// with the same name
	ErrProjectAlreadyExists = errors.New("project already exists")
)

// PaginationParams defines parameters for paginated queries
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams creates a PaginationParams with sane defaults
func NewPaginationParams(page, limit int) PaginationParams {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return PaginationParams{Page: page, Limit: limit}
}

// Repository defines the interface for project persistence operations
type Repository interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProjectByID(ctx context.Context, id string) (*Project, error)
	GetProjectByName(ctx context.Context, name string) (*Project, error)
	ListProjects(ctx context.Context, params PaginationParams) ([]*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id string) error
}

// SQLRepository implements Repository using SQLite
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new project SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) Repository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

var projectColumns = []string{
	"id",
	"name",
	"description",
	"output_path",
	"created_at",
	"updated_at",
}

// CreateProject saves a new project to the database
func (r *SQLRepository) CreateProject(ctx context.Context, project *Project) error {
	existing, err := r.GetProjectByName(ctx, project.Name)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return fmt.Errorf("checking for existing project: %w", err)
	}
	if existing != nil {
		return ErrProjectAlreadyExists
	}

	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = now
	}

	query, args, err := r.builder.
		Insert("projects").
		Columns(projectColumns...).
		Values(
			project.ID,
			project.Name,
			project.Description,
			project.OutputPath,
			project.CreatedAt.UTC().Format(time.RFC3339),
			project.UpdatedAt.UTC().Format(time.RFC3339),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when creating project")
	}

	r.logger.Info("Created project", "id", project.ID, "name", project.Name, "output_path", project.OutputPath)
	return nil
}

// GetProjectByID retrieves a project by its ID
func (r *SQLRepository) GetProjectByID(ctx context.Context, id string) (*Project, error) {
	query, args, err := r.builder.
		Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	return project, nil
}

// GetProjectByName retrieves a project by its name
func (r *SQLRepository) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	query, args, err := r.builder.
		Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	return project, nil
}

// ListProjects returns projects ordered by most recently updated
func (r *SQLRepository) ListProjects(ctx context.Context, params PaginationParams) ([]*Project, error) {
	query := r.builder.
		Select(projectColumns...).
		From("projects").
		OrderBy("updated_at DESC")

	if params.Limit > 0 {
		query = query.Limit(uint64(params.Limit))
		if params.Page > 0 {
			query = query.Offset(uint64((params.Page - 1) * params.Limit))
		}
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building paginated query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying for projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProjectFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return projects, nil
}

// UpdateProject updates an existing project
func (r *SQLRepository) UpdateProject(ctx context.Context, project *Project) error {
	project.UpdatedAt = time.Now()

	query, args, err := r.builder.
		Update("projects").
		Set("name", project.Name).
		Set("description", project.Description).
		Set("output_path", project.OutputPath).
		Set("updated_at", project.UpdatedAt.UTC().Format(time.RFC3339)).
		Where(sq.Eq{"id": project.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	r.logger.Info("Updated project", "id", project.ID, "name", project.Name)
	return nil
}

// DeleteProject deletes a project and all associated data by its ID.
// Generations, files and memories cascade via foreign keys.
func (r *SQLRepository) DeleteProject(ctx context.Context, id string) error {
	query, args, err := r.builder.
		Delete("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	r.logger.Info("Deleted project and all associated data", "id", id)
	return nil
}

func scanProject(row *sql.Row) (*Project, error) {
	var project Project
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.OutputPath,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if err := parseProjectTimes(&project, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	return &project, nil
}

func scanProjectFromRows(rows *sql.Rows) (*Project, error) {
	var project Project
	var createdAtStr, updatedAtStr string

	err := rows.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.OutputPath,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if err := parseProjectTimes(&project, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	return &project, nil
}

func parseProjectTimes(project *Project, createdAt, updatedAt string) error {
	var err error
	if project.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	if project.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	return nil
}
