package resolver

import (
	"context"
	"strings"

	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResolveVendorTags resolves each distinct vendor tag on its own, consulting the
// mapping store before scoring. Tags without a match are absent from the result.
// Mapping store failures never fail the call.
func (r *Resolver) ResolveVendorTags(ctx context.Context, vendorKey string, tags []string, opts models.ResolveOptions) (map[string]*models.FitmentMatch, error) {
	ctx, span := r.tracer.Start(ctx, "fitment.ResolveVendorTags", trace.WithAttributes(
		attribute.String("fitment.vendor", vendorKey),
		attribute.Int("fitment.tags", len(tags)),
	))
	defer span.End()
	start := r.now()

	results := make(map[string]*models.FitmentMatch)
	distinct := distinctTags(tags)
	if len(distinct) == 0 {
		return results, nil
	}

	vehicles, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, r.fail(span, "vendor", start, err)
	}
	bySlug := make(map[string]models.CanonicalVehicle, len(vehicles))
	for _, v := range vehicles {
		bySlug[v.Slug] = v
	}

	floor := opts.Floor()
	learned := 0
	for _, tag := range distinct {
		existing := r.lookupMapping(ctx, vendorKey, tag)
		if existing != nil && existing.Confidence >= floor {
			if v, ok := bySlug[existing.VehicleSlug]; ok {
				results[tag] = &models.FitmentMatch{
					VehicleID:   v.ID,
					VehicleSlug: v.Slug,
					VehicleName: v.Name,
					Confidence:  existing.Confidence,
					Method:      models.MethodLearned,
					MatchedTags: []string{tag},
				}
				learned++
				continue
			}
			r.logger.Warn("Learned mapping points at a vehicle missing from the catalog", map[string]interface{}{
				"vendorKey": vendorKey,
				"vendorTag": tag,
				"slug":      existing.VehicleSlug,
			})
		}

		matches := r.tags.Score([]string{tag}, vehicles, floor, opts.Families)
		if len(matches) == 0 {
			continue
		}
		best := matches[0]
		results[tag] = &best

		if existing != nil && existing.Verified {
			continue
		}
		r.saveMapping(ctx, models.LearnedMapping{
			VendorKey:    vendorKey,
			VendorTag:    tag,
			VehicleSlug:  best.VehicleSlug,
			Confidence:   best.Confidence,
			SourceMethod: string(best.Method),
			ResolvedAt:   r.now().UTC(),
		})
	}

	for _, m := range results {
		metrics.MatchConfidence.WithLabelValues(string(m.Method)).Observe(m.Confidence)
	}
	span.SetAttributes(
		attribute.Int("fitment.matches", len(results)),
		attribute.Int("fitment.learned", learned),
	)
	metrics.ResolutionDuration.WithLabelValues("vendor").Observe(r.now().Sub(start).Seconds())
	metrics.ResolutionsTotal.WithLabelValues("vendor", "matched").Add(float64(len(results)))
	metrics.ResolutionsTotal.WithLabelValues("vendor", "no_match").Add(float64(len(distinct) - len(results)))
	return results, nil
}

func (r *Resolver) lookupMapping(ctx context.Context, vendorKey, tag string) *models.LearnedMapping {
	if r.mappings == nil || vendorKey == "" {
		return nil
	}
	m, err := r.mappings.GetExistingMapping(ctx, vendorKey, tag)
	if err != nil {
		r.logger.Warn("Learned mapping lookup failed, scoring tag", map[string]interface{}{
			"vendorKey": vendorKey,
			"vendorTag": tag,
			"error":     err,
		})
		return nil
	}
	return m
}

func (r *Resolver) saveMapping(ctx context.Context, m models.LearnedMapping) {
	if r.mappings == nil || m.VendorKey == "" {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	if err := r.mappings.SaveMapping(writeCtx, m); err != nil {
		metrics.MappingWriteFailures.Inc()
		r.logger.Warn("Failed to persist learned mapping", map[string]interface{}{
			"vendorKey": m.VendorKey,
			"vendorTag": m.VendorTag,
			"slug":      m.VehicleSlug,
			"error":     err,
		})
	}
}

func distinctTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
