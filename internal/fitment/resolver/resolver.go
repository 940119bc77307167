// Package resolver turns year/make/model, vendor tags and free text into a
// single canonical vehicle from the reference catalog.
package resolver

import (
	"context"
	"sort"
	"strings"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/fitment/catalog"
	"fitment-workers/internal/fitment/mapping"
	"fitment-workers/internal/fitment/scoring"
	"fitment-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "fitment-workers/resolver"

	// DefaultMappingWriteTimeout bounds a learned-mapping write.
	DefaultMappingWriteTimeout = 2 * time.Second
)

// Resolver runs the scorers against one catalog snapshot per call.
type Resolver struct {
	catalog      *catalog.Cache
	tags         *scoring.TagScorer
	text         *scoring.TextScorer
	mappings     mapping.Store
	writeTimeout time.Duration
	logger       logger.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithTagScorer replaces the built-in family table.
func WithTagScorer(s *scoring.TagScorer) Option {
	return func(r *Resolver) {
		if s != nil {
			r.tags = s
		}
	}
}

// WithMappingStore enables learned vendor-tag lookups and write-back.
func WithMappingStore(store mapping.Store) Option {
	return func(r *Resolver) { r.mappings = store }
}

func WithMappingWriteTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New builds a Resolver over cache.
func New(cache *catalog.Cache, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:      cache,
		tags:         scoring.NewTagScorer(nil),
		writeTimeout: DefaultMappingWriteTimeout,
		logger:       logger.NewNoOpLogger(),
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.text = scoring.NewTextScorer(r.tags)
	r.logger = r.logger.WithFields(map[string]interface{}{"component": "fitment-resolver"})
	return r
}

// Resolve runs every applicable strategy and returns the most confident match.
// It returns nil without error when nothing clears the floor.
func (r *Resolver) Resolve(ctx context.Context, in models.ResolveInput, opts models.ResolveOptions) (*models.FitmentMatch, error) {
	ctx, span := r.tracer.Start(ctx, "fitment.Resolve")
	defer span.End()
	start := r.now()

	if in.IsEmpty() {
		r.observe("resolve", start, nil)
		return nil, nil
	}

	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, r.fail(span, "resolve", start, err)
	}

	best := r.best(in, vehicles, opts)
	annotate(span, best)
	r.observe("resolve", start, best)
	return best, nil
}

// ResolveBatch loads the catalog once and resolves inputs in order. Inputs without
// a match are absent from the result.
func (r *Resolver) ResolveBatch(ctx context.Context, inputs []models.ResolveInput, opts models.ResolveOptions) (map[int]*models.FitmentMatch, error) {
	ctx, span := r.tracer.Start(ctx, "fitment.ResolveBatch", trace.WithAttributes(
		attribute.Int("fitment.batch.size", len(inputs)),
	))
	defer span.End()
	start := r.now()

	results := make(map[int]*models.FitmentMatch, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, r.fail(span, "batch", start, err)
	}

	for i, in := range inputs {
		match := r.best(in, vehicles, opts)
		if match == nil {
			r.logger.Debug("Batch item unresolved", map[string]interface{}{"index": i})
			continue
		}
		results[i] = match
		metrics.MatchConfidence.WithLabelValues(string(match.Method)).Observe(match.Confidence)
		r.logger.Debug("Batch item resolved", map[string]interface{}{
			"index":      i,
			"slug":       match.VehicleSlug,
			"confidence": match.Confidence,
			"method":     match.Method,
		})
	}

	span.SetAttributes(attribute.Int("fitment.batch.matched", len(results)))
	metrics.ResolutionDuration.WithLabelValues("batch").Observe(r.now().Sub(start).Seconds())
	metrics.ResolutionsTotal.WithLabelValues("batch", "matched").Add(float64(len(results)))
	metrics.ResolutionsTotal.WithLabelValues("batch", "no_match").Add(float64(len(inputs) - len(results)))
	return results, nil
}

// ResolveFromYMMS scores a structured query alone.
func (r *Resolver) ResolveFromYMMS(ctx context.Context, q models.StructuredQuery, opts models.ResolveOptions) (*models.FitmentMatch, error) {
	ctx, span := r.tracer.Start(ctx, "fitment.ResolveFromYMMS")
	defer span.End()
	start := r.now()

	if strings.TrimSpace(q.Make) == "" && strings.TrimSpace(q.Model) == "" && strings.TrimSpace(q.SubmodelValue()) == "" && !q.HasYear() {
		r.observe("ymms", start, nil)
		return nil, nil
	}

	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, r.fail(span, "ymms", start, err)
	}

	match := scoring.BestStructured(q, vehicles, opts.Floor())
	annotate(span, match)
	r.observe("ymms", start, match)
	return match, nil
}

// ResolveFromTags returns every family match at or above the floor, best first.
func (r *Resolver) ResolveFromTags(ctx context.Context, tags []string, opts models.ResolveOptions) ([]models.FitmentMatch, error) {
	ctx, span := r.tracer.Start(ctx, "fitment.ResolveFromTags", trace.WithAttributes(
		attribute.Int("fitment.tags", len(tags)),
	))
	defer span.End()
	start := r.now()

	if !hasContent(tags) {
		r.observe("tags", start, nil)
		return []models.FitmentMatch{}, nil
	}

	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, r.fail(span, "tags", start, err)
	}

	matches := r.tags.Score(tags, vehicles, opts.Floor(), opts.Families)
	r.observeList(span, "tags", start, matches)
	return matches, nil
}

// ResolveFromText extracts tags from text and scores them.
func (r *Resolver) ResolveFromText(ctx context.Context, text string, opts models.ResolveOptions) ([]models.FitmentMatch, error) {
	ctx, span := r.tracer.Start(ctx, "fitment.ResolveFromText")
	defer span.End()
	start := r.now()

	if strings.TrimSpace(text) == "" {
		r.observe("text", start, nil)
		return []models.FitmentMatch{}, nil
	}

	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, r.fail(span, "text", start, err)
	}

	matches := r.text.Score(text, vehicles, opts.Floor(), opts.Families)
	r.observeList(span, "text", start, matches)
	return matches, nil
}

// InvalidateCatalog forces the next call to refetch the catalog.
func (r *Resolver) InvalidateCatalog() {
	r.catalog.Invalidate()
}

// WarmCatalog loads the catalog, fetching it if the snapshot is missing or
// expired, and returns the snapshot size.
func (r *Resolver) WarmCatalog(ctx context.Context) (int, error) {
	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(vehicles), nil
}

// best folds the candidates of every applicable strategy into one list and
// returns the most confident. Strategy order breaks ties: ymms, tags, text.
func (r *Resolver) best(in models.ResolveInput, vehicles []models.CanonicalVehicle, opts models.ResolveOptions) *models.FitmentMatch {
	floor := opts.Floor()
	var candidates []models.FitmentMatch

	if in.YMMS != nil {
		if m := scoring.BestStructured(*in.YMMS, vehicles, floor); m != nil {
			candidates = append(candidates, *m)
		}
	}
	if hasContent(in.Tags) {
		candidates = append(candidates, r.tags.Score(in.Tags, vehicles, floor, opts.Families)...)
	}
	if strings.TrimSpace(in.Text) != "" {
		candidates = append(candidates, r.text.Score(in.Text, vehicles, floor, opts.Families)...)
	}

	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	best := candidates[0]
	return &best
}

func (r *Resolver) fail(span trace.Span, entry string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.ResolutionsTotal.WithLabelValues(entry, "error").Inc()
	metrics.ResolutionDuration.WithLabelValues(entry).Observe(r.now().Sub(start).Seconds())
	r.logger.Error("Fitment resolution failed", map[string]interface{}{
		"entry": entry,
		"error": err,
	})
	return err
}

func (r *Resolver) observe(entry string, start time.Time, match *models.FitmentMatch) {
	metrics.ResolutionDuration.WithLabelValues(entry).Observe(r.now().Sub(start).Seconds())
	if match == nil {
		metrics.ResolutionsTotal.WithLabelValues(entry, "no_match").Inc()
		return
	}
	metrics.ResolutionsTotal.WithLabelValues(entry, "matched").Inc()
	metrics.MatchConfidence.WithLabelValues(string(match.Method)).Observe(match.Confidence)
}

func (r *Resolver) observeList(span trace.Span, entry string, start time.Time, matches []models.FitmentMatch) {
	span.SetAttributes(attribute.Int("fitment.matches", len(matches)))
	if len(matches) == 0 {
		r.observe(entry, start, nil)
		return
	}
	r.observe(entry, start, &matches[0])
}

func annotate(span trace.Span, match *models.FitmentMatch) {
	if match == nil {
		span.SetAttributes(attribute.Bool("fitment.matched", false))
		return
	}
	span.SetAttributes(
		attribute.Bool("fitment.matched", true),
		attribute.String("fitment.vehicle_slug", match.VehicleSlug),
		attribute.String("fitment.method", string(match.Method)),
		attribute.Float64("fitment.confidence", match.Confidence),
	)
}

func hasContent(tags []string) bool {
	for _, t := range tags {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}
