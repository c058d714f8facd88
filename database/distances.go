package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
	loadSql "github.com/siherrmann/geobench/sql"
)

// DistancesDBHandlerFunctions defines the interface for Distances database operations.
type DistancesDBHandlerFunctions interface {
	InsertEdges(ctx context.Context, country string, edges []model.DistanceEdge) error
	SelectDistance(ctx context.Context, country string, from string, to string) (float64, error)
	SelectDistancesFrom(ctx context.Context, country string, from string) ([]model.DistanceEdge, error)
	CountDistances(ctx context.Context, country string) (int, error)
	DeleteDistancesByCountry(ctx context.Context, country string) (int, error)
}

// DistancesDBHandler handles distance-related database operations
type DistancesDBHandler struct {
	db *helper.Database
}

// NewDistancesDBHandler creates a new distances database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDistancesDBHandler(db *helper.Database, force bool) (*DistancesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	distancesDbHandler := &DistancesDBHandler{
		db: db,
	}

	err := loadSql.LoadDistancesSql(distancesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load distances sql", err)
	}

	err = distancesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DistancesDBHandler")

	return distancesDbHandler, nil
}

// CreateTable creates the 'distances' table in the database.
// If the table already exists, it does not create it again.
func (h *DistancesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_distances();`)
	if err != nil {
		log.Panicf("error initializing distances table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table distances")

	return nil
}

// InsertEdges upserts all edges in one transaction
func (h *DistancesDBHandler) InsertEdges(ctx context.Context, country string, edges []model.DistanceEdge) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `SELECT upsert_distance($1, $2, $3, $4)`)
	if err != nil {
		return helper.NewError("prepare", err)
	}
	defer stmt.Close()

	for _, edge := range edges {
		if _, err := stmt.ExecContext(ctx, country, edge.From, edge.To, edge.Km); err != nil {
			return helper.NewError("exec", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	h.db.Logger.Info("Stored distances", "country", country, "edges", len(edges))
	return nil
}

// SelectDistance retrieves the distance between two cities
func (h *DistancesDBHandler) SelectDistance(ctx context.Context, country string, from string, to string) (float64, error) {
	var edge model.DistanceEdge
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_distance($1, $2, $3)`,
		country,
		from,
		to,
	).Scan(&edge.From, &edge.To, &edge.Km)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, helper.NewError("select distance", fmt.Errorf("%w: distance %q to %q", model.ErrNotFound, from, to))
	}
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return edge.Km, nil
}

// SelectDistancesFrom retrieves all edges leaving a city, closest first
func (h *DistancesDBHandler) SelectDistancesFrom(ctx context.Context, country string, from string) ([]model.DistanceEdge, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_distances_from($1, $2)`,
		country,
		from,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []model.DistanceEdge
	for rows.Next() {
		var edge model.DistanceEdge
		if err := rows.Scan(&edge.From, &edge.To, &edge.Km); err != nil {
			return nil, helper.NewError("scan", err)
		}
		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

// CountDistances counts the stored edges of a country
func (h *DistancesDBHandler) CountDistances(ctx context.Context, country string) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_distances($1)`, country).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteDistancesByCountry deletes all edges of a country
func (h *DistancesDBHandler) DeleteDistancesByCountry(ctx context.Context, country string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_distances_by_country($1)`, country).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}
