package models

import "time"

// MatchMethod labels the strategy that produced a FitmentMatch. MethodLearned appears
// only in vendor-tag results served from a stored mapping.
type MatchMethod string

const (
	MethodYMMS    MatchMethod = "ymms"
	MethodPattern MatchMethod = "pattern"
	MethodText    MatchMethod = "text"
	MethodLearned MatchMethod = "learned"
)

// DefaultMinConfidence is applied when a caller leaves the floor unset.
const DefaultMinConfidence = 0.5

// FitmentMatch is a single resolution result. It is never mutated after creation.
type FitmentMatch struct {
	VehicleID   string      `json:"vehicleId"`
	VehicleSlug string      `json:"vehicleSlug"`
	VehicleName string      `json:"vehicleName"`
	Confidence  float64     `json:"confidence"`
	Method      MatchMethod `json:"method"`
	MatchedTags []string    `json:"matchedTags,omitempty"`
}

// WithMethod returns a copy relabelled with method.
func (m FitmentMatch) WithMethod(method MatchMethod) FitmentMatch {
	out := m
	out.Method = method
	if m.MatchedTags != nil {
		out.MatchedTags = append([]string(nil), m.MatchedTags...)
	}
	return out
}

// ResolveInput carries zero or more descriptions of the same vehicle.
type ResolveInput struct {
	YMMS *StructuredQuery `json:"ymms,omitempty"`
	Tags []string         `json:"tags,omitempty"`
	Text string           `json:"text,omitempty"`
}

// IsEmpty reports whether no strategy applies to the input.
func (in ResolveInput) IsEmpty() bool {
	return in.YMMS == nil && len(in.Tags) == 0 && in.Text == ""
}

// ResolveOptions tunes a resolution call. A nil MinConfidence means DefaultMinConfidence;
// an explicit 0 disables the floor.
type ResolveOptions struct {
	MinConfidence *float64 `json:"minConfidence,omitempty"`
	Families      []string `json:"families,omitempty"`
}

// WithMinConfidence returns a copy of o with the floor set to c.
func (o ResolveOptions) WithMinConfidence(c float64) ResolveOptions {
	o.MinConfidence = &c
	return o
}

// Floor returns the effective confidence floor, clamped to [0,1].
func (o ResolveOptions) Floor() float64 {
	if o.MinConfidence == nil {
		return DefaultMinConfidence
	}
	switch c := *o.MinConfidence; {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// LearnedMapping is a persisted vendor-tag to vehicle resolution keyed by (VendorKey, VendorTag).
type LearnedMapping struct {
	ID           string    `json:"id"`
	VendorKey    string    `json:"vendorKey"`
	VendorTag    string    `json:"vendorTag"`
	VehicleSlug  string    `json:"vehicleSlug"`
	Confidence   float64   `json:"confidence"`
	Verified     bool      `json:"verified"`
	SourceMethod string    `json:"sourceMethod"`
	ResolvedAt   time.Time `json:"resolvedAt"`
}
