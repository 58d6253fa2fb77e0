package project

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/codeforge/internal/loggy"
)

func newTestRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{
		db:      db,
		logger:  loggy.NewNoopLogger(),
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func TestProjectRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	defer db.Close()

	repo := newTestRepository(db)

	sample := &Project{
		ID:          "proj-01htest",
		Name:        "falling-star",
		Description: "A flask todo API",
		OutputPath:  "/home/user/.codeforge/projects/falling-star",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	t.Run("CreateProject", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM projects WHERE name = ?").
			WithArgs(sample.Name).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectExec("INSERT INTO projects").
			WithArgs(
				sample.ID,
				sample.Name,
				sample.Description,
				sample.OutputPath,
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateProject(context.Background(), sample)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CreateProjectDuplicateName", func(t *testing.T) {
		rows := projectRows(sample)
		mock.ExpectQuery("SELECT .+ FROM projects WHERE name = ?").
			WithArgs(sample.Name).
			WillReturnRows(rows)

		err := repo.CreateProject(context.Background(), sample)
		assert.ErrorIs(t, err, ErrProjectAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetProjectByID", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM projects WHERE id = ?").
			WithArgs(sample.ID).
			WillReturnRows(projectRows(sample))

		got, err := repo.GetProjectByID(context.Background(), sample.ID)
		require.NoError(t, err)
		assert.Equal(t, sample.ID, got.ID)
		assert.Equal(t, sample.Name, got.Name)
		assert.Equal(t, sample.OutputPath, got.OutputPath)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetProjectByIDNotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM projects WHERE id = ?").
			WithArgs("proj-missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetProjectByID(context.Background(), "proj-missing")
		assert.ErrorIs(t, err, ErrProjectNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListProjects", func(t *testing.T) {
		second := &Project{
			ID:         "proj-02htest",
			Name:       "quiet-river",
			OutputPath: "/home/user/.codeforge/projects/quiet-river",
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}

		rows := projectRows(sample)
		rows.AddRow(
			second.ID, second.Name, second.Description, second.OutputPath,
			second.CreatedAt.UTC().Format(time.RFC3339),
			second.UpdatedAt.UTC().Format(time.RFC3339),
		)

		mock.ExpectQuery("SELECT .+ FROM projects ORDER BY updated_at DESC").
			WillReturnRows(rows)

		projects, err := repo.ListProjects(context.Background(), NewPaginationParams(1, 10))
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "falling-star", projects[0].Name)
		assert.Equal(t, "quiet-river", projects[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateProject", func(t *testing.T) {
		mock.ExpectExec("UPDATE projects SET").
			WithArgs(
				sample.Name,
				sample.Description,
				sample.OutputPath,
				sqlmock.AnyArg(),
				sample.ID,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProject(context.Background(), sample)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateProjectNotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE projects SET").
			WithArgs(
				sample.Name,
				sample.Description,
				sample.OutputPath,
				sqlmock.AnyArg(),
				sample.ID,
			).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProject(context.Background(), sample)
		assert.ErrorIs(t, err, ErrProjectNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteProject", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM projects").
			WithArgs(sample.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteProject(context.Background(), sample.ID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults applied", 0, 0, 1, 10},
		{"negative values", -1, -5, 1, 10},
		{"limit capped", 1, 500, 1, 100},
		{"passthrough", 3, 25, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := NewPaginationParams(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

func projectRows(p *Project) *sqlmock.Rows {
	return sqlmock.NewRows(projectColumns).AddRow(
		p.ID,
		p.Name,
		p.Description,
		p.OutputPath,
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
}
