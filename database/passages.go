package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
	loadSql "github.com/siherrmann/geobench/sql"
)

// PassagesDBHandlerFunctions defines the interface for Passages database operations.
type PassagesDBHandlerFunctions interface {
	InsertPassage(ctx context.Context, passage *model.Passage) error
	InsertPassages(ctx context.Context, passages []*model.Passage) error
	SelectPassage(ctx context.Context, id int) (*model.Passage, error)
	SelectPassagesBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.Passage, error)
	CountPassages(ctx context.Context) (int, error)
	DeleteAllPassages(ctx context.Context) (int, error)
}

// PassagesDBHandler handles passage-related database operations
type PassagesDBHandler struct {
	db *helper.Database
}

// NewPassagesDBHandler creates a new passages database handler.
// It initializes the database connection and loads passage-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPassagesDBHandler(db *helper.Database, embeddingDim int, force bool) (*PassagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	passagesDbHandler := &PassagesDBHandler{
		db: db,
	}

	err := loadSql.LoadPassagesSql(passagesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load passages sql", err)
	}

	err = passagesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PassagesDBHandler")

	return passagesDbHandler, nil
}

// CreateTable creates the 'passages' table in the database.
// If the table already exists, it does not create it again.
// It also creates the vector index.
func (h *PassagesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_passages($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing passages table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table passages")

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPassage(row scanner, withSimilarity bool) (*model.Passage, error) {
	passage := &model.Passage{}
	var embedding pgvector.Vector
	dest := []any{
		&passage.ID,
		&passage.From,
		&passage.To,
		&passage.Km,
		&passage.Text,
		&embedding,
		&passage.Metadata,
		&passage.CreatedAt,
	}
	var similarity float64
	if withSimilarity {
		dest = append(dest, &similarity)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	passage.Embedding = embedding.Slice()
	if withSimilarity {
		passage.Similarity = &similarity
	}
	return passage, nil
}

// InsertPassage inserts a new passage with its embedding
func (h *PassagesDBHandler) InsertPassage(ctx context.Context, passage *model.Passage) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_passage($1, $2, $3, $4, $5, $6)`,
		passage.From,
		passage.To,
		passage.Km,
		passage.Text,
		pgvector.NewVector(passage.Embedding),
		passage.Metadata,
	)

	inserted, err := scanPassage(row, false)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*passage = *inserted

	return nil
}

// InsertPassages inserts passages in one transaction and sets their IDs
func (h *PassagesDBHandler) InsertPassages(ctx context.Context, passages []*model.Passage) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	for _, passage := range passages {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM insert_passage($1, $2, $3, $4, $5, $6)`,
			passage.From,
			passage.To,
			passage.Km,
			passage.Text,
			pgvector.NewVector(passage.Embedding),
			passage.Metadata,
		)
		inserted, err := scanPassage(row, false)
		if err != nil {
			return helper.NewError("scan", err)
		}
		*passage = *inserted
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}
	return nil
}

// SelectPassage retrieves a passage by ID
func (h *PassagesDBHandler) SelectPassage(ctx context.Context, id int) (*model.Passage, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_passage($1)`,
		id,
	)

	passage, err := scanPassage(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select passage", fmt.Errorf("%w: passage %d", model.ErrNotFound, id))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return passage, nil
}

// SelectPassagesBySimilarity performs cosine similarity search
func (h *PassagesDBHandler) SelectPassagesBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.Passage, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_passages_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var passages []*model.Passage
	for rows.Next() {
		passage, err := scanPassage(rows, true)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		passages = append(passages, passage)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return passages, nil
}

// CountPassages counts the stored passages
func (h *PassagesDBHandler) CountPassages(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_passages()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteAllPassages empties the passages table
func (h *PassagesDBHandler) DeleteAllPassages(ctx context.Context) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_all_passages()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}
