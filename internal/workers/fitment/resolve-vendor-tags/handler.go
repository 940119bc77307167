package resolvevendortags

import (
	"context"
	"strings"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-vendor-tags"

type Resolver interface {
	ResolveVendorTags(ctx context.Context, vendorKey string, tags []string, opts models.ResolveOptions) (map[string]*models.FitmentMatch, error)
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
	opts := fitmentjob.Options(input.MinConfidence, input.Families, h.config.MinConfidence)

	matches, err := h.resolver.ResolveVendorTags(ctx, strings.TrimSpace(input.VendorKey), input.Tags, opts)
	if err != nil {
		return nil, err
	}

	output := &Output{Matches: matches, UnresolvedTags: []string{}}
	seen := make(map[string]bool, len(input.Tags))
	for _, tag := range input.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		if _, ok := matches[tag]; !ok {
			output.UnresolvedTags = append(output.UnresolvedTags, tag)
		}
	}
	for _, m := range matches {
		if m.Method == models.MethodLearned {
			output.LearnedCount++
		}
	}

	h.logger.Info("Vendor tags resolved", map[string]interface{}{
		"vendorKey":  input.VendorKey,
		"tags":       len(seen),
		"resolved":   len(matches),
		"learned":    output.LearnedCount,
		"unresolved": len(output.UnresolvedTags),
	})
	return output, nil
}
