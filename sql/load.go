package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed cities.sql
var citiesSQL string

//go:embed distances.sql
var distancesSQL string

//go:embed passages.sql
var passagesSQL string

// Function lists for verification
var CitiesFunctions = []string{
	"init_cities",
	"insert_city",
	"select_city",
	"select_cities_by_country",
	"delete_cities_by_country",
}

var DistancesFunctions = []string{
	"init_distances",
	"upsert_distance",
	"select_distance",
	"select_distances_from",
	"count_distances",
	"delete_distances_by_country",
}

var PassagesFunctions = []string{
	"init_passages",
	"insert_passage",
	"select_passage",
	"select_passages_by_similarity",
	"count_passages",
	"delete_all_passages",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadCitiesSql loads city-related SQL functions
func LoadCitiesSql(db *sql.DB, force bool) error {
	return load(db, "cities", citiesSQL, CitiesFunctions, force)
}

// LoadDistancesSql loads distance-related SQL functions
func LoadDistancesSql(db *sql.DB, force bool) error {
	return load(db, "distances", distancesSQL, DistancesFunctions, force)
}

// LoadPassagesSql loads passage-related SQL functions
func LoadPassagesSql(db *sql.DB, force bool) error {
	return load(db, "passages", passagesSQL, PassagesFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadCitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadDistancesSql(db, force); err != nil {
		return err
	}

	if err := LoadPassagesSql(db, force); err != nil {
		return err
	}

	return nil
}

// load executes the SQL of one table unless all its functions exist already
func load(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
