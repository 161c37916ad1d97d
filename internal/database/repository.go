package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/rs/zerolog/log"
)

// IndexRow is one row of an index table: a document and its embedding.
type IndexRow struct {
	Position  int64
	ID        string
	URL       string
	Content   string
	Title     pgtype.Text
	Source    pgtype.Text
	CreatedAt pgtype.Timestamptz
	Embedding pgvector.Vector
}

func (r IndexRow) Document() index.Document {
	id := r.ID
	if id == "" {
		id = strconv.FormatInt(r.Position, 10)
	}

	var createdAt time.Time
	if r.CreatedAt.Valid {
		createdAt = r.CreatedAt.Time
	}

	return index.Document{
		ID:        id,
		URL:       r.URL,
		Content:   r.Content,
		Title:     r.Title.String,
		Source:    r.Source.String,
		CreatedAt: createdAt,
	}
}

func indexQuery(table string) string {
	return fmt.Sprintf(`
	SELECT
	  position,
	  COALESCE(id::text, ''),
	  url,
	  content,
	  title,
	  source,
	  created_at,
	  embedding
	FROM %s
	ORDER BY position ASC`, pgx.Identifier{table}.Sanitize())
}

// LoadIndex reads the whole index table in position order and builds an
// in-memory store from it. The table is only read at startup.
func (db *DB) LoadIndex(ctx context.Context, table string, metric index.Metric) (*index.Store, error) {
	rows, err := db.Pool.Query(ctx, indexQuery(table))
	if err != nil {
		return nil, fmt.Errorf("Unable to query index table %s: %w", table, err)
	}
	defer rows.Close()

	var (
		dim     int
		vectors []float32
		docs    []index.Document
	)

	for rows.Next() {
		var row IndexRow
		if err := rows.Scan(
			&row.Position,
			&row.ID,
			&row.URL,
			&row.Content,
			&row.Title,
			&row.Source,
			&row.CreatedAt,
			&row.Embedding,
		); err != nil {
			return nil, fmt.Errorf("Failed to scan index row: %w", err)
		}

		embedding := row.Embedding.Slice()
		if dim == 0 {
			dim = len(embedding)
		}
		if len(embedding) != dim {
			return nil, fmt.Errorf("Row at position %d has %d dimensions, expected %d: %w",
				row.Position, len(embedding), dim, index.ErrDimensionMismatch)
		}

		vectors = append(vectors, embedding...)
		docs = append(docs, row.Document())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Failed to read index table %s: %w", table, err)
	}

	if len(docs) == 0 {
		dim, err = db.declaredDim(ctx, table)
		if err != nil {
			return nil, err
		}
	}

	log.Info().Str("table", table).Int("documents", len(docs)).Int("dim", dim).Msg("Index table loaded")

	return buildStore(table, dim, metric, vectors, docs)
}

// declaredDim reads the dimension of the embedding column, vector(n), from
// the catalog. An unconstrained vector column reports zero.
func (db *DB) declaredDim(ctx context.Context, table string) (int, error) {
	var typmod int32
	err := db.Pool.QueryRow(ctx, `
	SELECT atttypmod
	FROM pg_attribute
	WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		pgx.Identifier{table}.Sanitize(),
	).Scan(&typmod)
	if err != nil {
		return 0, fmt.Errorf("Unable to read embedding dimension of %s: %w", table, err)
	}
	return max(int(typmod), 0), nil
}

// buildStore accepts an empty table like an empty directory index, as long as
// the dimension is known.
func buildStore(table string, dim int, metric index.Metric, vectors []float32, docs []index.Document) (*index.Store, error) {
	if len(docs) == 0 && dim <= 0 {
		return nil, fmt.Errorf("Index table %s has no rows and no declared embedding dimension: %w", table, index.ErrEmptyIndex)
	}
	return index.New(dim, metric, vectors, docs)
}
