package resolvevehiclefitment

import (
	"context"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-vehicle-fitment"

// Resolver is the part of the fitment resolver this worker needs.
type Resolver interface {
	Resolve(ctx context.Context, in models.ResolveInput, opts models.ResolveOptions) (*models.FitmentMatch, error)
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

// Execute resolves the vehicle without touching the job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	opts := fitmentjob.Options(input.MinConfidence, input.Families, h.config.MinConfidence)

	match, err := h.resolver.Resolve(ctx, input.resolveInput(), opts)
	if err != nil {
		return nil, err
	}

	if match == nil {
		h.logger.Debug("No vehicle cleared the confidence floor", map[string]interface{}{
			"minConfidence": opts.Floor(),
		})
	}
	return &Output{Match: match, Resolved: match != nil}, nil
}
