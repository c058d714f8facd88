package geobench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/geobench/core/artifact"
	"github.com/siherrmann/geobench/core/cache"
	"github.com/siherrmann/geobench/core/evaluate"
	"github.com/siherrmann/geobench/core/geocode"
	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/core/pipeline"
	"github.com/siherrmann/geobench/core/questions"
	"github.com/siherrmann/geobench/core/report"
	"github.com/siherrmann/geobench/core/retrieval"
	"github.com/siherrmann/geobench/core/store"
	"github.com/siherrmann/geobench/database"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
	loadSql "github.com/siherrmann/geobench/sql"
)

// TurtleFile is the RDF rendering of the distance graph
const TurtleFile = "city_graph.ttl"

// Bench wires the city source, the distance graph, the answer producers and
// the evaluation of one benchmark run
type Bench struct {
	Config Config
	Store  *store.Store
	Graph  *graph.Graph
	Cache  cache.Cache
	// Registry collects producer and report metrics
	Registry *prometheus.Registry

	// Set with Storage "postgres"
	DB        *helper.Database
	Cities    *database.CitiesDBHandler
	Distances *database.DistancesDBHandler
	Passages  *database.PassagesDBHandler

	chat     pipeline.ChatFunc
	embed    pipeline.EmbedFunc
	overpass *geocode.Overpass
	metrics  *pipeline.Metrics
	log      *slog.Logger
}

// New creates a Bench. With Storage "postgres" the database is configured from
// the GEOBENCH_DB_* environment variables.
func New(ctx context.Context, config Config) (*Bench, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := helper.NewLogger(os.Stdout, config.Level())
	registry := prometheus.NewRegistry()

	b := &Bench{
		Config:   config,
		Registry: registry,
		overpass: geocode.NewOverpass(),
		metrics:  pipeline.NewMetrics(registry),
		log:      logger,
	}

	if config.CacheURL != "" {
		redisCache, err := cache.NewRedis(ctx, config.CacheURL)
		if err != nil {
			return nil, helper.NewError("connect cache", err)
		}
		b.Cache = redisCache
	} else {
		memory := cache.NewMemory()
		if err := readCache(config.CacheFile, memory); err != nil {
			return nil, err
		}
		b.Cache = memory
	}

	if config.Storage == StoragePostgres {
		if err := b.openDatabase(); err != nil {
			b.Close()
			return nil, err
		}
	}

	return b, nil
}

func (b *Bench) openDatabase() error {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return err
	}

	db := helper.NewDatabase("geobench", dbConfig, b.log)
	b.DB = db

	if err := loadSql.Init(db.Instance); err != nil {
		return helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	b.Cities, err = database.NewCitiesDBHandler(db, false)
	if err != nil {
		return helper.NewError("create cities handler", err)
	}
	b.Distances, err = database.NewDistancesDBHandler(db, false)
	if err != nil {
		return helper.NewError("create distances handler", err)
	}
	b.Passages, err = database.NewPassagesDBHandler(db, b.Config.Embedding.Dim, false)
	if err != nil {
		return helper.NewError("create passages handler", err)
	}
	return nil
}

// Close closes the database and cache connections
func (b *Bench) Close() error {
	var errs []error
	if closer, ok := b.Cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if memory, ok := b.Cache.(*cache.Memory); ok && b.Config.CacheFile != "" {
		errs = append(errs, writeCache(b.Config.CacheFile, memory))
	}
	if b.DB != nil {
		errs = append(errs, b.DB.Close())
	}
	return errors.Join(errs...)
}

// readCache loads a persisted memory cache. A missing file is an empty cache.
func readCache(path string, memory *cache.Memory) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return helper.NewError("open cache file", err)
	}
	defer f.Close()
	return memory.ReadJSON(f)
}

func writeCache(path string, memory *cache.Memory) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return helper.NewError("create cache directory", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return helper.NewError("create cache file", err)
	}
	if err := memory.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SetChat replaces the configured chat backend
func (b *Bench) SetChat(chat pipeline.ChatFunc) {
	b.chat = chat
}

// SetEmbedder replaces the configured sentence transformer
func (b *Bench) SetEmbedder(embed pipeline.EmbedFunc) {
	b.embed = embed
}

// SetOverpass replaces the client used to fetch the cities of a country
func (b *Bench) SetOverpass(o *geocode.Overpass) {
	b.overpass = o
}

// LoadCities builds the distance graph. Cities come from the cities file,
// then from the cities table, then from OpenStreetMap for the configured
// country. Fetched cities are written to the cities file.
func (b *Bench) LoadCities(ctx context.Context) error {
	s, source, err := b.loadStore(ctx)
	if err != nil {
		return err
	}

	for _, excluded := range s.Excluded() {
		b.log.Warn("Excluded city", slog.String("error", excluded.Error()))
	}

	g, err := graph.FromStore(s)
	if err != nil {
		return helper.NewError("build graph", err)
	}
	b.Store = s
	b.Graph = g

	b.log.Info("Built distance graph", slog.String("source", source), slog.Int("cities", g.Len()), slog.Int("excluded", len(s.Excluded())))

	if b.Cities != nil && source != "database" {
		if err := b.Cities.InsertCities(ctx, b.Config.Country, g.Cities()); err != nil {
			return helper.NewError("store cities", err)
		}
		if err := b.Distances.InsertEdges(ctx, b.Config.Country, g.Edges()); err != nil {
			return helper.NewError("store distances", err)
		}
	}
	return nil
}

func (b *Bench) loadStore(ctx context.Context) (*store.Store, string, error) {
	if b.Config.CitiesFile != "" {
		f, err := os.Open(b.Config.CitiesFile)
		if err == nil {
			defer f.Close()
			s, err := store.LoadJSON(f)
			if err != nil {
				return nil, "", err
			}
			return s, "file", nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", helper.NewError("open cities", err)
		}
	}

	if b.Cities != nil {
		cities, err := b.Cities.SelectCitiesByCountry(ctx, b.Config.Country)
		if err != nil {
			return nil, "", helper.NewError("select cities", err)
		}
		if len(cities) > 0 {
			return store.New(cities...), "database", nil
		}
	}

	if b.Config.Country == "" {
		return nil, "", helper.NewError("load cities", fmt.Errorf("%w: no cities file and no country", model.ErrInput))
	}

	cities, err := b.overpass.FetchCities(ctx, b.Config.Country)
	if err != nil {
		return nil, "", helper.NewError("fetch cities", err)
	}
	if b.Config.CitiesFile != "" {
		if err := writeCities(b.Config.CitiesFile, cities); err != nil {
			return nil, "", err
		}
	}
	return store.New(cities...), "overpass", nil
}

func writeCities(path string, cities []model.City) error {
	data, err := json.MarshalIndent(cities, "", "    ")
	if err != nil {
		return helper.NewError("marshal cities", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return helper.NewError("write cities", err)
	}
	return nil
}

// GenerateQuestions samples the configured number of question sets
func (b *Bench) GenerateQuestions() ([]model.QuestionSet, error) {
	if b.Graph == nil {
		return nil, helper.NewError("generate questions", fmt.Errorf("%w: cities not loaded", model.ErrInput))
	}

	opts := []questions.Option{questions.WithLogger(b.log)}
	if b.Config.ExcludeReferences {
		opts = append(opts, questions.WithoutReferenceCandidates())
	}
	return questions.NewGenerator(b.Config.Seed, opts...).Generate(b.Graph, b.Config.Count)
}

func (b *Bench) chatFunc() (pipeline.ChatFunc, error) {
	chat := b.chat
	if chat == nil {
		var err error
		chat, err = pipeline.NewChat(b.Config.Chat)
		if err != nil {
			return nil, err
		}
	}
	return pipeline.CachedChat(chat, b.Cache, b.log), nil
}

// Pipeline builds the answer producer of a strategy
func (b *Bench) Pipeline(ctx context.Context, strategy model.Strategy) (*pipeline.Pipeline, error) {
	if b.Graph == nil {
		return nil, helper.NewError("build pipeline", fmt.Errorf("%w: cities not loaded", model.ErrInput))
	}

	chat, err := b.chatFunc()
	if err != nil {
		return nil, err
	}

	var ask pipeline.AskFunc
	switch strategy {
	case model.StrategyPlain:
		ask = pipeline.PlainLLM(chat)
	case model.StrategyVector:
		ask, err = b.vectorAsk(ctx, chat)
	case model.StrategyGraph:
		ask, err = pipeline.GraphQuery(chat, b.Graph, b.Config.ExcludeReferences)
	default:
		err = fmt.Errorf("%w: unknown strategy %q", model.ErrInput, strategy)
	}
	if err != nil {
		return nil, helper.NewError("build "+string(strategy)+" pipeline", err)
	}

	p := pipeline.NewPipeline(strategy, ask)
	p.SetLogger(b.log)
	return p, nil
}

func (b *Bench) vectorAsk(ctx context.Context, chat pipeline.ChatFunc) (pipeline.AskFunc, error) {
	embed := b.embed
	if embed == nil {
		var err error
		embed, err = pipeline.NewEmbedder(b.Config.Embedding.Model, b.Config.Embedding.OnnxFile)
		if err != nil {
			return nil, err
		}
	}

	var index retrieval.Index = retrieval.NewMemoryIndex()
	if b.Passages != nil {
		if _, err := b.Passages.DeleteAllPassages(ctx); err != nil {
			return nil, err
		}
		index = retrieval.NewPostgresIndex(b.Passages)
	}

	config := b.Config.Retrieval.QueryConfig
	engine := retrieval.NewEngine(embed, index, b.Graph, b.log)
	if err := engine.IndexPassages(ctx, retrieval.BuildPassages(b.Graph, config.Sparsity, config.Seed)); err != nil {
		return nil, err
	}

	var strategy retrieval.Strategy = retrieval.NewVectorOnlyStrategy(engine)
	if b.Config.Retrieval.Retriever == RetrieverContextual {
		strategy = retrieval.NewContextualStrategy(engine)
	}
	return pipeline.VectorRAG(chat, engine, strategy, config), nil
}

// Answer asks all questions with one strategy
func (b *Bench) Answer(ctx context.Context, strategy model.Strategy, sets []model.QuestionSet) (model.AnswerFile, error) {
	p, err := b.Pipeline(ctx, strategy)
	if err != nil {
		return model.AnswerFile{}, err
	}

	runner := pipeline.NewRunner(
		pipeline.WithWorkers(b.Config.Workers),
		pipeline.WithLogger(b.log),
		pipeline.WithMetrics(b.metrics),
	)
	return runner.Run(ctx, p, sets)
}

// Locator resolves answered cities: the loaded cities first, then Nominatim
// behind the cache when geocoding is enabled
func (b *Bench) Locator() evaluate.Locator {
	chain := geocode.Chain{}
	if b.Store != nil {
		chain = append(chain, geocode.FromStore(b.Store))
	}
	if b.Config.Geocode {
		chain = append(chain, geocode.NewCached(geocode.NewNominatim(b.Config.CountryCode), b.Cache, b.log))
	}
	return chain
}

// Evaluate scores the answer files of all strategies against the question sets
func (b *Bench) Evaluate(ctx context.Context, sets []model.QuestionSet, files []model.AnswerFile) ([]evaluate.StrategyReport, error) {
	if b.Graph == nil {
		return nil, helper.NewError("evaluate", fmt.Errorf("%w: cities not loaded", model.ErrInput))
	}

	evaluator := evaluate.NewEvaluator(b.Graph,
		evaluate.WithLocator(b.Locator()),
		evaluate.WithConfig(b.Config.Eval),
		evaluate.WithLogger(b.log),
	)

	reports := make([]evaluate.StrategyReport, 0, len(files))
	for _, file := range files {
		r, err := evaluator.EvaluateStrategy(ctx, sets, file)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// WriteGraph writes the Turtle rendering of the graph to the output directory
func (b *Bench) WriteGraph() error {
	if err := os.MkdirAll(b.Config.OutputDir, 0750); err != nil {
		return helper.NewError("create output directory", err)
	}

	f, err := os.Create(b.path(TurtleFile))
	if err != nil {
		return helper.NewError("create turtle file", err)
	}
	defer f.Close()

	if err := b.Graph.WriteTurtle(f); err != nil {
		return helper.NewError("write turtle", err)
	}
	return f.Close()
}

// WriteReports writes the JSON report and the Prometheus metrics to the
// output directory and prints the summary with histograms to w
func (b *Bench) WriteReports(w io.Writer, reports []evaluate.StrategyReport) error {
	if err := artifact.WriteReports(b.path(artifact.ReportFile), reports); err != nil {
		return err
	}
	if err := report.WriteMetrics(b.path(artifact.MetricsFile), b.Registry, reports); err != nil {
		return err
	}

	if _, err := io.WriteString(w, report.Text(reports)); err != nil {
		return err
	}
	return report.Histogram(w, reports)
}

// Run loads the cities, generates the questions, answers them with every
// configured strategy and evaluates the answers. All artifacts are written
// to the output directory.
func (b *Bench) Run(ctx context.Context, w io.Writer) ([]evaluate.StrategyReport, error) {
	if err := b.LoadCities(ctx); err != nil {
		return nil, err
	}
	if err := b.WriteGraph(); err != nil {
		return nil, err
	}

	sets, err := b.GenerateQuestions()
	if err != nil {
		return nil, err
	}
	if err := artifact.WriteQuestions(b.path(artifact.QuestionsFile), sets); err != nil {
		return nil, err
	}

	files := make([]model.AnswerFile, 0, len(b.Config.Strategies))
	for _, strategy := range b.Config.Strategies {
		file, err := b.Answer(ctx, strategy, sets)
		if err != nil {
			return nil, err
		}
		if err := artifact.WriteAnswers(b.path(artifact.AnswersFile(strategy)), file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	reports, err := b.Evaluate(ctx, sets, files)
	if err != nil {
		return nil, err
	}
	if err := b.WriteReports(w, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ChangeIndexType changes the vector index of the passages table
func (b *Bench) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	if b.Passages == nil {
		return helper.NewError("change index type", fmt.Errorf("%w: storage is not postgres", model.ErrInput))
	}
	return b.Passages.ChangeIndexType(ctx, indexType, params)
}

func (b *Bench) path(name string) string {
	return filepath.Join(b.Config.OutputDir, name)
}
