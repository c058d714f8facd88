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

// CitiesDBHandlerFunctions defines the interface for Cities database operations.
type CitiesDBHandlerFunctions interface {
	InsertCity(ctx context.Context, country string, city *model.City) error
	InsertCities(ctx context.Context, country string, cities []model.City) error
	SelectCity(ctx context.Context, country string, name string) (*model.City, error)
	SelectCitiesByCountry(ctx context.Context, country string) ([]model.City, error)
	DeleteCitiesByCountry(ctx context.Context, country string) (int, error)
}

// CitiesDBHandler handles city-related database operations
type CitiesDBHandler struct {
	db *helper.Database
}

// NewCitiesDBHandler creates a new cities database handler.
// It initializes the database connection and loads city-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCitiesDBHandler(db *helper.Database, force bool) (*CitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	citiesDbHandler := &CitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadCitiesSql(citiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load cities sql", err)
	}

	err = citiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CitiesDBHandler")

	return citiesDbHandler, nil
}

// CreateTable creates the 'cities' table in the database.
// If the table already exists, it does not create it again.
func (h *CitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_cities();`)
	if err != nil {
		log.Panicf("error initializing cities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table cities")

	return nil
}

// InsertCity inserts a city. An existing city of the same name keeps its
// coordinates, which are written back into city.
func (h *CitiesDBHandler) InsertCity(ctx context.Context, country string, city *model.City) error {
	if err := city.Validate(); err != nil {
		return helper.NewError("validate city", err)
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT output_name, output_lat, output_lon FROM insert_city($1, $2, $3, $4)`,
		country,
		city.Name,
		city.Lat,
		city.Lon,
	)

	err := row.Scan(&city.Name, &city.Lat, &city.Lon)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// InsertCities inserts cities in order within one transaction.
// Invalid cities are skipped.
func (h *CitiesDBHandler) InsertCities(ctx context.Context, country string, cities []model.City) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	for _, city := range cities {
		if err := city.Validate(); err != nil {
			h.db.Logger.Warn("Skipping invalid city", "name", city.Name, "error", err.Error())
			continue
		}
		_, err := tx.ExecContext(ctx, `SELECT * FROM insert_city($1, $2, $3, $4)`, country, city.Name, city.Lat, city.Lon)
		if err != nil {
			return helper.NewError("exec", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}
	return nil
}

// SelectCity retrieves a city by name
func (h *CitiesDBHandler) SelectCity(ctx context.Context, country string, name string) (*model.City, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT output_name, output_lat, output_lon FROM select_city($1, $2)`,
		country,
		name,
	)

	city := &model.City{}
	err := row.Scan(&city.Name, &city.Lat, &city.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select city", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return city, nil
}

// SelectCitiesByCountry retrieves all cities of a country in insertion order
func (h *CitiesDBHandler) SelectCitiesByCountry(ctx context.Context, country string) ([]model.City, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT output_name, output_lat, output_lon FROM select_cities_by_country($1)`,
		country,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var city model.City
		if err := rows.Scan(&city.Name, &city.Lat, &city.Lon); err != nil {
			return nil, helper.NewError("scan", err)
		}
		cities = append(cities, city)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return cities, nil
}

// DeleteCitiesByCountry deletes all cities of a country and returns how many were removed
func (h *CitiesDBHandler) DeleteCitiesByCountry(ctx context.Context, country string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_cities_by_country($1)`, country).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}
