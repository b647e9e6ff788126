// Command simulate resolves a scenario file into per-tick account values.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cashflow-lab/internal/config"
	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/idhash"
	"cashflow-lab/internal/interval"
	"cashflow-lab/internal/logger"
	"cashflow-lab/internal/observability"
	"cashflow-lab/internal/scenario"
	"cashflow-lab/internal/storage"
	"cashflow-lab/internal/verification"
)

func main() {
	// Scenario
	scenarioPath := flag.String("scenario", "", "Path to scenario YAML file (required)")
	resolution := flag.String("resolution", "", "Override tick resolution: daily, weekly")
	parallelism := flag.Int("parallelism", 0, "Formulas evaluated concurrently (0 = scenario file or env)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (runs, and snapshots without ClickHouse)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (snapshots)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	persist := flag.Bool("persist", false, "Persist the run and its snapshots")
	migrate := flag.Bool("migrate", false, "Apply migrations before persisting")
	verify := flag.Bool("verify", false, "Compare the results with the stored run before persisting")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	journal := flag.Bool("journal", false, "Print every applied action")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "Human-readable logs")
	envFile := flag.String("env-file", ".env", "Dotenv file with CASHFLOW_* defaults")

	flag.Parse()

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		bootstrap := logger.New(logger.Config{})
		bootstrap.Fatal().Err(err).Msg("load environment")
	}

	level := env.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	log := logger.New(logger.Config{Level: level, Pretty: *pretty || env.Pretty})
	logger.SetGlobalLogger(log)
	log = log.With().Str("component", "simulate").Logger()

	if *scenarioPath == "" {
		log.Fatal().Msg("--scenario is required")
	}
	if *postgresDSN == "" {
		*postgresDSN = env.PostgresDSN
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = env.ClickHouseDSN
	}
	if *metricsAddr == "" {
		*metricsAddr = env.MetricsAddr
	}

	// Create context with cancellation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.DefaultMetrics
	if env.MetricsNamespace != "" && env.MetricsNamespace != "cashflow_lab" {
		metrics = observability.NewMetrics(env.MetricsNamespace)
		observability.Use(metrics)
	}
	if *metricsAddr != "" {
		go serveMetrics(log, *metricsAddr)
	}

	file, err := config.Load(*scenarioPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *scenarioPath).Msg("load scenario")
	}
	if *resolution != "" {
		freq, err := interval.ParseFrequency(*resolution)
		if err != nil {
			log.Fatal().Err(err).Msg("--resolution")
		}
		file.Resolution = string(freq)
	}

	fctx, freq, interest, err := config.Build(file)
	if err != nil {
		log.Fatal().Err(err).Msg("build scenario")
	}

	workers := file.Parallelism
	if *parallelism > 0 {
		workers = *parallelism
	} else if env.Parallelism > 1 && workers <= 1 {
		workers = env.Parallelism
	}

	var j *scenario.Journal
	if *journal {
		j = scenario.NewJournal()
	}

	sc, err := scenario.New(fctx,
		scenario.WithInterest(interest),
		scenario.WithLogger(log),
		scenario.WithMetrics(metrics),
		scenario.WithParallelism(workers),
		scenario.WithJournal(j),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("create scenario")
	}

	log.Info().
		Str("scenario", file.Name).
		Time("start", fctx.Start).
		Time("end", fctx.End).
		Str("resolution", string(freq)).
		Int("accounts", fctx.Accounts.Len()).
		Msg("solving scenario")

	tickLabel := string(freq)
	var results *domain.Results
	schedule, err := file.TickSchedule()
	if err != nil {
		log.Fatal().Err(err).Msg("parse tick schedule")
	}
	if schedule != nil {
		tickLabel = schedule.Spec()
		results, err = sc.SolveTicks(ctx, schedule.Generate(fctx.Start, fctx.End))
	} else {
		results, err = sc.Solve(ctx, freq)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("solve cancelled")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("solve scenario")
	}

	run, err := newRun(file, fctx.Start, fctx.End, tickLabel, fctx.Accounts.Len(), results)
	if err != nil {
		log.Fatal().Err(err).Msg("compute run id")
	}

	if *persist || *verify {
		err := syncStorage(ctx, log, metrics, storeOptions{
			PostgresDSN:   *postgresDSN,
			ClickHouseDSN: *clickhouseDSN,
			UseMemory:     *useMemory,
			Migrate:       *migrate,
		}, *verify, *persist, run, results)
		if errors.Is(err, errDiverged) {
			os.Exit(2)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("storage")
		}
	}

	ids := fctx.Accounts.IDs()
	if *outputJSON {
		if err := writeJSON(os.Stdout, run, results, ids, j); err != nil {
			log.Fatal().Err(err).Msg("write output")
		}
		return
	}
	writeTable(os.Stdout, results, ids)
	writeSummaries(os.Stdout, results, ids)
	if j != nil {
		writeJournal(os.Stdout, j)
	}
}

// errDiverged is returned by syncStorage when the results do not match
// the stored run.
var errDiverged = errors.New("run diverges from stored snapshots")

// newRun describes one solve. The run_id covers the scenario content, so
// the same id always means the same results.
func newRun(file *config.File, start, end time.Time, resolution string, accounts int, results *domain.Results) (*domain.Run, error) {
	fingerprint, err := file.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &domain.Run{
		RunID:       idhash.ComputeRunID(file.Name, start, end, resolution, fingerprint),
		ExecutionID: uuid.NewString(),
		Scenario:    file.Name,
		StartDate:   start,
		EndDate:     end,
		Resolution:  resolution,
		Accounts:    accounts,
		Ticks:       results.Len(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// syncStorage opens the stores, verifies and/or persists the run, and
// closes the stores before returning.
func syncStorage(ctx context.Context, log zerolog.Logger, metrics *observability.Metrics, opts storeOptions,
	verify, persist bool, run *domain.Run, results *domain.Results) error {
	st, err := openStores(ctx, log, opts)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	if verify {
		ok, err := verifyRun(ctx, log, st, run.RunID, results)
		if err != nil {
			return fmt.Errorf("verify run: %w", err)
		}
		if !ok {
			return errDiverged
		}
	}
	if persist {
		if err := persistRun(ctx, log, st, metrics, run, results); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
	}
	return nil
}

// persistRun stores the snapshots, then the run row. The run row marks a
// complete write: a retry after a failed snapshot write starts over, and
// a retry after a failed run insert finds its snapshots already stored.
func persistRun(ctx context.Context, log zerolog.Logger, stores *stores, metrics *observability.Metrics,
	run *domain.Run, results *domain.Results) error {
	snapshots := domain.SnapshotsFromResults(run.RunID, results)
	switch err := stores.Snapshots.InsertBulk(ctx, snapshots); {
	case err == nil:
		metrics.RecordSnapshotsStored(len(snapshots))
	case errors.Is(err, storage.ErrDuplicateKey):
		log.Warn().Str("run_id", run.RunID).Msg("snapshots already stored")
	default:
		return fmt.Errorf("insert snapshots: %w", err)
	}

	if err := stores.Runs.Insert(ctx, run); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			log.Warn().Str("run_id", run.RunID).Msg("run already stored, skipping")
			return nil
		}
		return fmt.Errorf("insert run: %w", err)
	}
	metrics.RecordRunStored()

	log.Info().
		Str("run_id", run.RunID).
		Str("execution_id", run.ExecutionID).
		Int("snapshots", len(snapshots)).
		Msg("run persisted")
	return nil
}

// verifyRun compares results with the stored run. A run that was never
// stored counts as verified.
func verifyRun(ctx context.Context, log zerolog.Logger, stores *stores, runID string, results *domain.Results) (bool, error) {
	res, err := verification.NewVerifier(stores.Runs, stores.Snapshots).VerifyRun(ctx, runID, results)
	if errors.Is(err, verification.ErrRunNotFound) {
		log.Info().Str("run_id", runID).Msg("run not stored yet, nothing to verify")
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if res.Match {
		log.Info().Str("run_id", runID).Int("snapshots", res.Checked).Msg("run verified")
		return true, nil
	}
	for _, d := range res.Divergences {
		log.Error().Str("run_id", runID).Str("kind", d.Kind).Msg(d.String())
	}
	log.Error().Str("run_id", runID).Int("divergences", len(res.Divergences)).Msg("run diverges from stored snapshots")
	return false, nil
}

func serveMetrics(log zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", observability.Handler())

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server")
	}
}
