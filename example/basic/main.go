package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/siherrmann/geobench"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// A handful of Australian cities, enough for a quick run without OpenStreetMap
const sampleCities = `[
	{"name": "Perth", "lat": -31.9505, "lon": 115.8605},
	{"name": "Adelaide", "lat": -34.9285, "lon": 138.6007},
	{"name": "Darwin", "lat": -12.4634, "lon": 130.8456},
	{"name": "Cairns", "lat": -16.9186, "lon": 145.7781},
	{"name": "Hobart", "lat": -42.8821, "lon": 147.3272},
	{"name": "Melbourne", "lat": -37.8136, "lon": 144.9631},
	{"name": "Sydney", "lat": -33.8688, "lon": 151.2093},
	{"name": "Brisbane", "lat": -27.4698, "lon": 153.0251}
]`

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container for the passages and distances
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	for key, value := range map[string]string{
		"GEOBENCH_DB_HOST":     "localhost",
		"GEOBENCH_DB_PORT":     dbPort,
		"GEOBENCH_DB_DATABASE": "database",
		"GEOBENCH_DB_USERNAME": "user",
		"GEOBENCH_DB_PASSWORD": "password",
	} {
		os.Setenv(key, value)
	}

	dir, err := os.MkdirTemp("", "geobench-basic")
	if err != nil {
		log.Fatalf("Failed to create work directory: %v", err)
	}
	citiesFile := filepath.Join(dir, "cities.json")
	if err := os.WriteFile(citiesFile, []byte(sampleCities), 0640); err != nil {
		log.Fatalf("Failed to write cities: %v", err)
	}

	// Reads OPENAI_API_KEY from the environment or .env
	config, err := geobench.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.CitiesFile = citiesFile
	config.OutputDir = filepath.Join(dir, "results")
	config.Storage = geobench.StoragePostgres
	config.Count = 5
	config.Strategies = []model.Strategy{model.StrategyVector}
	config.Retrieval.Retriever = geobench.RetrieverContextual

	b, err := geobench.New(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create bench: %v", err)
	}
	defer b.Close()

	fmt.Println("Running vector strategy...")
	reports, err := b.Run(ctx, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to run benchmark: %v", err)
	}

	for _, r := range reports {
		fmt.Printf("\n%s took %.1fs\n", r.Strategy, r.ExecutionTimeSeconds)
	}
	fmt.Printf("Artifacts written to %s\n", config.OutputDir)
}
