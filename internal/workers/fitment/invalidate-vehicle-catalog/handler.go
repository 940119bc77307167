package invalidatevehiclecatalog

import (
	"context"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/workers/fitment/fitmentjob"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "invalidate-vehicle-catalog"

type Resolver interface {
	InvalidateCatalog()
	WarmCatalog(ctx context.Context) (int, error)
}

type Handler struct {
	config   *Config
	resolver Resolver
	logger   logger.Logger
}

func NewHandler(config *Config, resolver Resolver, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Handler{
		config:   config,
		resolver: resolver,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := fitmentjob.DecodeVariables(job, inputSchema, &input); err != nil {
		fitmentjob.Fail(ctx, client, job, TaskType, err, h.logger)
		return err
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		fitmentjob.Fail(ctx, client, job, TaskType, err, h.logger)
		return err
	}

	if err := fitmentjob.Complete(ctx, client, job, output.variables()); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

// Execute drops the cached catalog and, when asked, reloads it. A failed reload
// after a previous load still succeeds on the stale snapshot.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	h.resolver.InvalidateCatalog()
	output := &Output{Invalidated: true}
	if !input.Reload {
		return output, nil
	}

	size, err := h.resolver.WarmCatalog(ctx)
	if err != nil {
		return nil, err
	}
	output.Reloaded = true
	output.Size = size

	h.logger.Info("Catalog reloaded", map[string]interface{}{"vehicles": size})
	return output, nil
}
