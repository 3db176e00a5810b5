package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ckd/ckd/internal/config"
	"github.com/ckd/ckd/internal/domain/alert"
	"github.com/ckd/ckd/internal/domain/medical"
	"github.com/ckd/ckd/internal/domain/patient"
	"github.com/ckd/ckd/internal/domain/prediction"
	"github.com/ckd/ckd/internal/featureselect"
	"github.com/ckd/ckd/internal/platform/auth"
	"github.com/ckd/ckd/internal/platform/db"
	"github.com/ckd/ckd/internal/platform/middleware"
	"github.com/ckd/ckd/internal/platform/reporting"
	"github.com/ckd/ckd/internal/platform/sandbox"
	"github.com/ckd/ckd/migrations"
)

const version = "0.1.0"

// patientReader and clinicalReader are the parts of the patient and medical
// services the prediction snapshot needs.
type patientReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type clinicalReader interface {
	LatestKidneyMetrics(ctx context.Context, patientID uuid.UUID) (*medical.KidneyMetrics, error)
	LatestVitalSigns(ctx context.Context, patientID uuid.UUID) (*medical.VitalSigns, error)
	RecentLabResults(ctx context.Context, patientID uuid.UUID, limit int) ([]*medical.LabResult, error)
}

// snapshotSource implements prediction.SnapshotSource on top of the patient
// and medical services, keeping the prediction package free of both.
type snapshotSource struct {
	patients patientReader
	clinical clinicalReader
}

func (s *snapshotSource) Snapshot(ctx context.Context, patientID uuid.UUID) (*prediction.Snapshot, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, prediction.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	snap := &prediction.Snapshot{DateOfBirth: p.DateOfBirth}

	km, err := s.clinical.LatestKidneyMetrics(ctx, patientID)
	if errors.Is(err, medical.ErrPatientNotFound) {
		return nil, prediction.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load kidney metrics: %w", err)
	}
	if km != nil {
		snap.Kidney = &prediction.KidneyReading{
			EGFR:        km.EGFR,
			Creatinine:  km.Creatinine,
			Proteinuria: km.Proteinuria,
			SystolicBP:  km.SystolicBP,
			DiastolicBP: km.DiastolicBP,
			Stage:       km.Stage,
		}
	}

	vs, err := s.clinical.LatestVitalSigns(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load vital signs: %w", err)
	}
	if vs != nil {
		snap.Vitals = &prediction.VitalsReading{SystolicBP: vs.SystolicBP, DiastolicBP: vs.DiastolicBP}
	}

	labs, err := s.clinical.RecentLabResults(ctx, patientID, prediction.RecentLabWindow)
	if err != nil {
		return nil, fmt.Errorf("load lab results: %w", err)
	}
	for _, l := range labs {
		snap.Labs = append(snap.Labs, prediction.LabReading{TestName: l.TestName, Value: l.Value, TestDate: l.TestDate})
	}
	return snap, nil
}

type alertCreator interface {
	Raise(ctx context.Context, patientID uuid.UUID, typ alert.Type, priority alert.Priority, category alert.Category, title, message string) (*alert.Alert, error)
}

// alertRaiser implements prediction.AlertRaiser. Risk alerts are critical
// lab alerts.
type alertRaiser struct {
	alerts alertCreator
}

func (a *alertRaiser) RaiseCritical(ctx context.Context, patientID uuid.UUID, title, message string) error {
	_, err := a.alerts.Raise(ctx, patientID, alert.TypeCritical, alert.PriorityCritical, alert.CategoryLab, title, message)
	return err
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ckd-server",
		Short:        "CKD risk scoring API server",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(predictCmd())
	root.AddCommand(selectFeaturesCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(reportCmd())
	return root
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// migrationsFS prefers an on-disk migrations directory and falls back to
// the embedded files.
func migrationsFS(dir string) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}
	return migrations.FS
}

// app holds the services shared by the server and the CLI commands.
type app struct {
	pool        *pgxpool.Pool
	redis       *redis.Client
	patients    *patient.Service
	medical     *medical.Service
	alerts      *alert.Service
	predictions *prediction.Service
	model       *prediction.RiskModel
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a := &app{pool: pool}

	var cache prediction.Cache = prediction.NopCache{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, prediction cache disabled")
			client.Close()
		} else {
			a.redis = client
			cache = prediction.NewRedisCache(client, cfg.PredictionCacheTTL)
			logger.Info().Msg("connected to redis")
		}
	}

	lookup := medical.NewPatientLookup(pool)
	a.patients = patient.NewService(patient.NewRepo(pool))
	a.medical = medical.NewService(lookup,
		medical.NewKidneyMetricsRepo(pool),
		medical.NewLabResultRepo(pool),
		medical.NewMedicationRepo(pool),
		medical.NewVitalSignsRepo(pool),
	)
	a.alerts = alert.NewService(alert.NewRepo(pool), lookup)

	a.model = prediction.LoadRiskModel(cfg.ModelDir, cfg.ModelStrict, logger)
	predictor := prediction.NewPredictor(&snapshotSource{patients: a.patients, clinical: a.medical},
		a.model, cfg.ModelVersion, logger)
	a.predictions = prediction.NewService(predictor, prediction.NewRepo(pool), lookup, cache,
		&alertRaiser{alerts: a.alerts}, logger)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.pool.Close()
}

// loadApp loads and validates configuration and builds the app.
func loadApp(ctx context.Context) (*app, *config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, nil, logger, err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, nil, logger, err
	}
	return a, cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the CKD API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationsFS(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory (embedded files when absent)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsFS(dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory (embedded files when absent)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// predictOutcome is one row of the predict command's output.
type predictOutcome struct {
	PatientID uuid.UUID
	Result    *prediction.Result
	Err       error
}

// runPredictions scores ids with at most workers calls in flight. Per
// patient failures are collected, not returned; the error is only set when
// the context is cancelled.
func runPredictions(ctx context.Context, ids []uuid.UUID, workers int, fn func(context.Context, uuid.UUID) (*prediction.Result, error)) ([]predictOutcome, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]predictOutcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, id)
			out[i] = predictOutcome{PatientID: id, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// printOutcomes writes one line per patient and returns the failure count.
func printOutcomes(w io.Writer, outcomes []predictOutcome) int {
	failed := 0
	fmt.Fprintf(w, "%-36s %-10s %10s %-6s %s\n", "PATIENT", "RESULT", "CONFIDENCE", "STAGE", "RISK")
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(w, "%-36s error: %v\n", o.PatientID, o.Err)
			continue
		}
		r := o.Result
		fmt.Fprintf(w, "%-36s %-10s %9.2f%% %-6d %s\n", o.PatientID, r.Result, r.Confidence, r.Stage, r.RiskLevel)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "    - %s\n", rec)
		}
	}
	return failed
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one patient, or the first patients with kidney metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetString("patient-id")
			count, _ := cmd.Flags().GetInt("count")
			workers, _ := cmd.Flags().GetInt("workers")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, _, logger, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var ids []uuid.UUID
			if patientID != "" {
				id, err := uuid.Parse(patientID)
				if err != nil {
					return fmt.Errorf("invalid --patient-id: %w", err)
				}
				ids = []uuid.UUID{id}
			} else {
				ids, err = a.medical.PatientsWithKidneyMetrics(ctx, count)
				if err != nil {
					return err
				}
			}
			if len(ids) == 0 {
				fmt.Println("No patients with kidney metrics found.")
				return nil
			}
			logger.Info().Int("patients", len(ids)).Int("workers", workers).
				Str("mode", a.model.Mode().String()).Msg("running predictions")

			score := func(ctx context.Context, id uuid.UUID) (*prediction.Result, error) {
				if dryRun {
					return a.predictions.Predictor().Predict(ctx, id)
				}
				rec, err := a.predictions.Analyze(ctx, id)
				if err != nil {
					return nil, err
				}
				return recordResult(rec), nil
			}
			outcomes, err := runPredictions(ctx, ids, workers, score)
			if err != nil {
				return err
			}
			if failed := printOutcomes(os.Stdout, outcomes); failed > 0 {
				return fmt.Errorf("%d of %d predictions failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().String("patient-id", "", "Score a single patient")
	cmd.Flags().Int("count", 5, "Number of patients to score when --patient-id is not set")
	cmd.Flags().Int("workers", 4, "Maximum concurrent predictions")
	cmd.Flags().Bool("dry-run", false, "Print results without persisting them")
	return cmd
}

// recordResult maps a persisted prediction back onto a Result for output.
func recordResult(rec *prediction.Record) *prediction.Result {
	stage := 0
	if rec.PredictedStage != nil {
		stage = *rec.PredictedStage
	}
	return &prediction.Result{
		Result:          rec.PredictionResult,
		Confidence:      rec.Confidence,
		Stage:           stage,
		RiskLevel:       rec.RiskLevel,
		InputMetrics:    rec.InputData,
		Recommendations: rec.Recommendations,
		ModelVersion:    rec.ModelVersion,
	}
}

func selectFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-features",
		Short: "Select features from the CKD dataset and train the risk model artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			methodName, _ := cmd.Flags().GetString("method")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			nFeatures, _ := cmd.Flags().GetInt("n-features")
			out, _ := cmd.Flags().GetString("out")

			method, err := featureselect.ParseMethod(methodName)
			if err != nil {
				return err
			}
			ds, err := featureselect.LoadDatasetFile(csvPath)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}
			fmt.Printf("Loaded %d rows with %d numeric features from %s\n", ds.Rows(), len(ds.Features), csvPath)

			report, err := featureselect.Run(ds, featureselect.Config{
				Method:    method,
				Threshold: threshold,
				NFeatures: nFeatures,
			}, featureselect.DefaultTrainConfig)
			if err != nil {
				return err
			}
			if err := report.WriteArtifacts(out); err != nil {
				return fmt.Errorf("write artifacts: %w", err)
			}

			sel := report.Selection
			if sel.NComponents > 0 {
				fmt.Printf("Components for %.0f%% variance: %d\n", sel.Threshold*100, sel.NComponents)
			}
			fmt.Printf("Selected %d features (%s):\n", len(sel.Selected), sel.Method)
			for i, r := range sel.Ranking {
				if i >= len(sel.Selected) {
					break
				}
				fmt.Printf("  %2d. %-30s %.4f\n", i+1, r.Feature, r.Score)
			}
			perf := report.Summary.Performance
			fmt.Printf("Hold-out: accuracy %.4f  precision %.4f  recall %.4f  f1 %.4f  auc %.4f\n",
				perf.Accuracy, perf.Precision, perf.Recall, perf.F1Score, perf.AUC)
			fmt.Printf("Artifacts written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("csv", "ML/Chronic_Kidney_Dsease_data.csv", "Path to the CKD dataset")
	cmd.Flags().String("method", string(featureselect.MethodPCA), "Selection method: pca, univariate or mutual_info")
	cmd.Flags().Float64("threshold", featureselect.DefaultThreshold, "Cumulative explained variance for pca")
	cmd.Flags().Int("n-features", featureselect.DefaultNFeatures, "Number of features for univariate and mutual_info")
	cmd.Flags().String("out", "./ML/models_and_scalers", "Artifact output directory")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample patients from the CKD dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")

			ds, err := featureselect.LoadDatasetFile(csvPath)
			if err != nil {
				return fmt.Errorf("CKD dataset not loaded from %s: %w", csvPath, err)
			}
			fmt.Printf("Loaded %d records from dataset\n", ds.Rows())

			ctx := context.Background()
			a, _, logger, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			seeder := sandbox.NewSeeder(a.patients, a.medical, a.alerts,
				sandbox.SeedConfig{Count: count, Seed: seed}, logger)
			res, err := seeder.Seed(ctx, ds)
			if err != nil {
				return fmt.Errorf("load sample data: %w", err)
			}
			fmt.Printf("Created %d patients, %d lab results, %d vital signs, %d alerts in %s\n",
				len(res.Patients), res.LabResults, res.VitalSigns, res.Alerts, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().String("csv", "ML/Chronic_Kidney_Dsease_data.csv", "Path to the CKD dataset")
	cmd.Flags().Int("count", sandbox.DefaultCount, "Number of dataset rows to load")
	cmd.Flags().Int64("seed", 0, "Random seed for generated vitals (0 picks one)")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Evaluate reporting measures",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a measure to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			measure, _ := cmd.Flags().GetString("measure")
			out, _ := cmd.Flags().GetString("out")
			if reporting.FindMeasure(measure) == nil {
				ids := make([]string, 0, len(reporting.PredefinedMeasures))
				for _, m := range reporting.PredefinedMeasures {
					ids = append(ids, m.ID)
				}
				return fmt.Errorf("unknown measure %q (want one of %s)", measure, strings.Join(ids, ", "))
			}
			if out == "" {
				out = measure + ".xlsx"
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			report, err := reporting.Evaluate(ctx, reporting.NewPgStore(pool), measure, time.Now())
			if err != nil {
				return err
			}
			data, err := reporting.ExportXLSX(report)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %d row(s) of %s to %s\n", len(report.Results), report.MeasureName, out)
			return nil
		},
	}
	exportCmd.Flags().String("measure", "risk-level-distribution", "Measure id")
	exportCmd.Flags().String("out", "", "Output file (default <measure>.xlsx)")
	cmd.AddCommand(exportCmd)
	return cmd
}

// newServer builds the echo instance with middleware and routes.
func newServer(cfg *config.Config, a *app, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":     "ok",
			"version":    version,
			"model_mode": a.model.Mode().String(),
		})
	})
	e.GET("/health/db", db.HealthHandler(a.pool))

	// Auth applies to the API group only so health checks stay public.
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	patient.NewHandler(a.patients).RegisterRoutes(apiV1)
	medical.NewHandler(a.medical).RegisterRoutes(apiV1)
	alert.NewHandler(a.alerts).RegisterRoutes(apiV1)
	prediction.NewHandler(a.predictions, cfg.ModelDir).RegisterRoutes(apiV1)
	reporting.NewHandler(reporting.NewPgStore(a.pool)).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	ctx := context.Background()
	a, cfg, logger, err := loadApp(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}
	defer a.Close()
	logger.Info().Str("model_mode", a.model.Mode().String()).Msg("connected to database")

	if cfg.IsDev() {
		logger.Warn().Msg("development mode: requests are authenticated as a dev user")
	}

	e := newServer(cfg, a, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
