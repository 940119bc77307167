package resolvefitmentbatch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	fitmenterrors "fitment-workers/internal/common/errors"
	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-fitment-batch"

type Resolver interface {
	ResolveBatch(ctx context.Context, inputs []models.ResolveInput, opts models.ResolveOptions) (map[int]*models.FitmentMatch, error)
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Items) > h.config.MaxBatchSize {
		return nil, fitmenterrors.NewInvalidFitmentInputError(
			fmt.Sprintf("batch of %d items exceeds the limit of %d", len(input.Items), h.config.MaxBatchSize))
	}

	opts := fitmentjob.Options(input.MinConfidence, input.Families, h.config.MinConfidence)
	results, err := h.resolver.ResolveBatch(ctx, input.Items, opts)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Matches:         make(map[string]*models.FitmentMatch, len(results)),
		UnresolvedItems: []int{},
	}
	for i := range input.Items {
		match, ok := results[i]
		if !ok {
			output.UnresolvedItems = append(output.UnresolvedItems, i)
			continue
		}
		output.Matches[strconv.Itoa(i)] = match
	}
	output.ResolvedCount = len(output.Matches)

	h.logger.Info("Batch resolved", map[string]interface{}{
		"items":    len(input.Items),
		"resolved": output.ResolvedCount,
	})
	return output, nil
}
