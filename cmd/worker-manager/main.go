package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fitment-workers/internal/common/camunda"
	"fitment-workers/internal/common/config"
	"fitment-workers/internal/common/database"
	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/observability"
	"fitment-workers/internal/fitment/catalog"
	"fitment-workers/internal/fitment/mapping"
	"fitment-workers/internal/fitment/resolver"

	ivc "fitment-workers/internal/workers/fitment/invalidate-vehicle-catalog"
	rfb "fitment-workers/internal/workers/fitment/resolve-fitment-batch"
	rvf "fitment-workers/internal/workers/fitment/resolve-vehicle-fitment"
	rvt "fitment-workers/internal/workers/fitment/resolve-vendor-tags"
)

const serviceName = "fitment-workers"

var version = "dev"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if err := run(cfg, log); err != nil {
		zapLog.Fatal("worker manager failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	if cfg.App.Version != "" {
		version = cfg.App.Version
	}
	log.Info("Starting worker manager", map[string]interface{}{
		"version":       version,
		"environment":   cfg.App.Environment,
		"catalogSource": cfg.Fitment.CatalogSource,
	})

	obs, err := observability.New(serviceName, version, log)
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected", nil)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()
	log.Info("PostgreSQL connected", nil)

	if cfg.Fitment.RunMigrations {
		schemaVersion, err := database.RunMigrations(cfg.Database.Postgres.GetURL())
		if err != nil {
			return err
		}
		log.Info("Migrations applied", map[string]interface{}{"schemaVersion": schemaVersion})
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("Redis connected", nil)

	// --- Catalog source ---
	var store catalog.Store = catalog.NewPostgresStore(pg.DB)
	var esClient *database.ElasticsearchClient
	if cfg.Fitment.UsesElasticsearch() {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return err
		}
		if cfg.Fitment.RunMigrations {
			if err := esClient.EnsureVehicleIndex(ctx, cfg.Fitment.CatalogIndex); err != nil {
				return err
			}
		}
		store = catalog.NewElasticsearchStore(esClient.Client, cfg.Fitment.CatalogIndex, 0)
		log.Info("Elasticsearch connected", map[string]interface{}{"index": cfg.Fitment.CatalogIndex})
	}

	// --- Resolver ---
	cache := catalog.NewCache(store, catalog.CacheConfig{
		TTL:          cfg.Fitment.CatalogTTLDuration(),
		FetchTimeout: cfg.Fitment.CatalogFetchTimeoutDuration(),
	}, log)

	mappings := mapping.NewCachedStore(
		mapping.NewPostgresStore(pg.DB),
		rdb.Client,
		cfg.Fitment.MappingCacheTTLDuration(),
		log,
	)

	res := resolver.New(cache,
		resolver.WithLogger(log),
		resolver.WithMappingStore(mappings),
		resolver.WithMappingWriteTimeout(cfg.Fitment.MappingWriteTimeoutDuration()),
		resolver.WithTracer(obs.Tracer(serviceName+"/resolver")),
	)

	if size, err := res.WarmCatalog(ctx); err != nil {
		log.Warn("Catalog warm-up failed, first resolution will retry", map[string]interface{}{"error": err.Error()})
	} else {
		log.Info("Catalog warmed", map[string]interface{}{"vehicles": size})
	}

	// --- Workers ---
	workers, err := startWorkers(cfg, zeebe, res, log, obs)
	if err != nil {
		return err
	}

	// --- Health & Metrics Server ---
	checks := map[string]func(context.Context) error{
		"zeebe":    zeebe.HealthCheck,
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}
	if esClient != nil {
		checks["elasticsearch"] = esClient.Ping
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newHealthMux(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
	return nil
}

type registration struct {
	taskType string
	enabled  bool
	opts     camunda.WorkerOptions
	validate func() error
	handler  camunda.JobHandler
}

func fitmentRegistrations(cfg *config.Config, res *resolver.Resolver, log logger.Logger) []registration {
	vehicleCfg := rvf.FromAppConfig(cfg)
	batchCfg := rfb.FromAppConfig(cfg)
	vendorCfg := rvt.FromAppConfig(cfg)
	invalidateCfg := ivc.FromAppConfig(cfg)

	return []registration{
		{
			taskType: rvf.TaskType,
			enabled:  vehicleCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: vehicleCfg.MaxJobsActive, Timeout: vehicleCfg.Timeout},
			validate: vehicleCfg.Validate,
			handler:  rvf.NewHandler(vehicleCfg, res, log),
		},
		{
			taskType: rfb.TaskType,
			enabled:  batchCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: batchCfg.MaxJobsActive, Timeout: batchCfg.Timeout},
			validate: batchCfg.Validate,
			handler:  rfb.NewHandler(batchCfg, res, log),
		},
		{
			taskType: rvt.TaskType,
			enabled:  vendorCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: vendorCfg.MaxJobsActive, Timeout: vendorCfg.Timeout},
			validate: vendorCfg.Validate,
			handler:  rvt.NewHandler(vendorCfg, res, log),
		},
		{
			taskType: ivc.TaskType,
			enabled:  invalidateCfg.Enabled,
			opts:     camunda.WorkerOptions{MaxJobsActive: invalidateCfg.MaxJobsActive, Timeout: invalidateCfg.Timeout},
			validate: invalidateCfg.Validate,
			handler:  ivc.NewHandler(invalidateCfg, res, log),
		},
	}
}

func startWorkers(cfg *config.Config, zeebe *camunda.Client, res *resolver.Resolver, log logger.Logger, recorder camunda.JobRecorder) ([]*camunda.CamundaWorker, error) {
	var workers []*camunda.CamundaWorker
	for _, reg := range fitmentRegistrations(cfg, res, log) {
		if !reg.enabled {
			log.Info("Worker disabled", map[string]interface{}{"taskType": reg.taskType})
			continue
		}
		if err := reg.validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration for %s: %w", reg.taskType, err)
		}

		reg.opts.Name = serviceName
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), reg.taskType, reg.opts, reg.handler, log, recorder))
		log.Info("Worker started", map[string]interface{}{
			"taskType":      reg.taskType,
			"maxJobsActive": reg.opts.MaxJobsActive,
			"timeout":       reg.opts.Timeout.String(),
		})
	}
	log.Info("Workers registered", map[string]interface{}{"count": len(workers)})
	return workers, nil
}

// newHealthMux serves liveness, readiness over checks, and Prometheus metrics.
func newHealthMux(checks map[string]func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeJSON(w, status, map[string]interface{}{
			"status": state,
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
