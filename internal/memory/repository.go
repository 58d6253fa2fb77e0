package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// Repository defines the interface for memory persistence operations
type Repository interface {
	CreateMemory(ctx context.Context, mem *Memory) error
	SaveEmbedding(ctx context.Context, memoryID string, embedding []float32) error
	GetMemory(ctx context.Context, id string) (*Memory, error)
	ListByProject(ctx context.Context, projectID string) ([]*Memory, error)
	Search(ctx context.Context, embedding []float32, limit int, minSimilarity float64) ([]*ScoredMemory, error)
	DeleteMemory(ctx context.Context, id string) error
}

// SQLRepository implements Repository using SQLite with the sqlite-vec
// extension for similarity search, falling back to in-process cosine
// similarity when the extension is unavailable.
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new memory SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) Repository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

var memoryColumns = []string{
	"id",
	"project_id",
	"generation_id",
	"summary",
	"content",
	"created_at",
}

// CreateMemory saves a new memory record
func (r *SQLRepository) CreateMemory(ctx context.Context, mem *Memory) error {
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now()
	}

	query, args, err := r.builder.
		Insert("memories").
		Columns(memoryColumns...).
		Values(
			mem.ID,
			mem.ProjectID,
			mem.GenerationID,
			mem.Summary,
			mem.Content,
			mem.CreatedAt.UTC().Format(time.RFC3339),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}

	return nil
}

// SaveEmbedding stores the embedding blob for a memory
func (r *SQLRepository) SaveEmbedding(ctx context.Context, memoryID string, embedding []float32) error {
	blob, err := serializeVector(embedding)
	if err != nil {
		return err
	}

	query, args, err := r.builder.
		Insert("memory_embeddings").
		Columns("memory_id", "embedding", "dimensions", "created_at").
		Values(memoryID, blob, len(embedding), time.Now().UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting embedding: %w", err)
	}

	return nil
}

// GetMemory retrieves a memory by its ID
func (r *SQLRepository) GetMemory(ctx context.Context, id string) (*Memory, error) {
	query, args, err := r.builder.
		Select(memoryColumns...).
		From("memories").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	mem, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("scanning memory: %w", err)
	}

	return mem, nil
}

// ListByProject returns all memories for a project, newest first
func (r *SQLRepository) ListByProject(ctx context.Context, projectID string) ([]*Memory, error) {
	query, args, err := r.builder.
		Select(memoryColumns...).
		From("memories").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying for memories: %w", err)
	}
	defer rows.Close()

	return collectMemories(rows)
}

// Search finds the memories most similar to the query embedding.
// It first tries a vec_distance_cosine query against the stored blobs;
// if the sqlite-vec extension is not loaded it falls back to scanning
// the embeddings and scoring them in Go.
func (r *SQLRepository) Search(ctx context.Context, embedding []float32, limit int, minSimilarity float64) ([]*ScoredMemory, error) {
	if limit <= 0 {
		limit = 5
	}

	blob, err := serializeVector(embedding)
	if err != nil {
		return nil, err
	}

	results, err := r.searchVec(ctx, blob, limit, minSimilarity)
	if err == nil {
		return results, nil
	}

	r.logger.Debug("Vector search via sqlite-vec failed, falling back to in-process scan", "error", err)
	return r.searchScan(ctx, embedding, limit, minSimilarity)
}

func (r *SQLRepository) searchVec(ctx context.Context, queryBlob []byte, limit int, minSimilarity float64) ([]*ScoredMemory, error) {
	query := `
		SELECT m.id, m.project_id, m.generation_id, m.summary, m.content, m.created_at,
		       vec_distance_cosine(e.embedding, ?) AS distance
		FROM memories m
		JOIN memory_embeddings e ON e.memory_id = m.id
		ORDER BY distance ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, queryBlob, limit)
	if err != nil {
		return nil, fmt.Errorf("vector similarity query: %w", err)
	}
	defer rows.Close()

	var results []*ScoredMemory
	for rows.Next() {
		var mem Memory
		var createdAt string
		var distance float64
		if err := rows.Scan(&mem.ID, &mem.ProjectID, &mem.GenerationID, &mem.Summary, &mem.Content, &createdAt, &distance); err != nil {
			return nil, fmt.Errorf("scanning scored memory: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			mem.CreatedAt = t
		}

		similarity := distanceToSimilarity(distance)
		if similarity < minSimilarity {
			continue
		}
		results = append(results, &ScoredMemory{Memory: &mem, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

func (r *SQLRepository) searchScan(ctx context.Context, embedding []float32, limit int, minSimilarity float64) ([]*ScoredMemory, error) {
	query := `
		SELECT m.id, m.project_id, m.generation_id, m.summary, m.content, m.created_at, e.embedding
		FROM memories m
		JOIN memory_embeddings e ON e.memory_id = m.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var results []*ScoredMemory
	for rows.Next() {
		var mem Memory
		var createdAt string
		var blob []byte
		if err := rows.Scan(&mem.ID, &mem.ProjectID, &mem.GenerationID, &mem.Summary, &mem.Content, &createdAt, &blob); err != nil {
			return nil, fmt.Errorf("scanning memory embedding: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			mem.CreatedAt = t
		}

		stored, err := deserializeVector(blob)
		if err != nil {
			r.logger.Warn("Skipping memory with malformed embedding", "memory_id", mem.ID)
			continue
		}

		cos, err := cosineSimilarity(embedding, stored)
		if err != nil {
			continue
		}
		// Scale to the same [0,1] range the vec path produces
		similarity := distanceToSimilarity(1.0 - cos)
		if similarity < minSimilarity {
			continue
		}
		results = append(results, &ScoredMemory{Memory: &mem, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sortBySimilarity(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteMemory deletes a memory; its embedding cascades via foreign key
func (r *SQLRepository) DeleteMemory(ctx context.Context, id string) error {
	query, args, err := r.builder.
		Delete("memories").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemoryNotFound
	}
	return nil
}

func sortBySimilarity(results []*ScoredMemory) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

func scanMemory(row *sql.Row) (*Memory, error) {
	var mem Memory
	var createdAt string

	err := row.Scan(
		&mem.ID,
		&mem.ProjectID,
		&mem.GenerationID,
		&mem.Summary,
		&mem.Content,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	mem.CreatedAt = t

	return &mem, nil
}

func collectMemories(rows *sql.Rows) ([]*Memory, error) {
	var memories []*Memory
	for rows.Next() {
		var mem Memory
		var createdAt string
		if err := rows.Scan(&mem.ID, &mem.ProjectID, &mem.GenerationID, &mem.Summary, &mem.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		mem.CreatedAt = t
		memories = append(memories, &mem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return memories, nil
}
