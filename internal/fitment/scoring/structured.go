// Package scoring implements the candidate scorers used by the resolver.
// Every scorer is a pure function of its input and a catalog snapshot and
// reports confidence in [0,1].
package scoring

import (
	"math"
	"strings"
	"unicode"

	"fitment-workers/internal/fitment/normalize"
	"fitment-workers/internal/models"
)

const (
	pointsMake         = 30.0
	pointsModel        = 40.0
	pointsYear         = 20.0
	pointsSubmodelWord = 5.0
	maxPoints          = 100.0
)

// StructuredScore is the point breakdown for one YMMS query against one vehicle.
type StructuredScore struct {
	Make       float64
	Model      float64
	Year       float64
	Submodel   float64
	Total      float64
	Confidence float64
}

// ScoreStructured scores q against v.
func ScoreStructured(q models.StructuredQuery, v models.CanonicalVehicle) StructuredScore {
	p := prepareQuery(q)
	return p.score(newVehicleText(v))
}

// BestStructured returns the highest scoring vehicle at or above floor.
// A vehicle that earned no points is never returned, even with a zero floor.
// The first vehicle in snapshot order wins a tie.
func BestStructured(q models.StructuredQuery, vehicles []models.CanonicalVehicle, floor float64) *models.FitmentMatch {
	p := prepareQuery(q)
	if p.isEmpty() {
		return nil
	}

	var (
		best      *models.CanonicalVehicle
		bestScore StructuredScore
	)
	for i := range vehicles {
		s := p.score(newVehicleText(vehicles[i]))
		if s.Total == 0 || s.Confidence < floor {
			continue
		}
		if best == nil || s.Confidence > bestScore.Confidence {
			best = &vehicles[i]
			bestScore = s
		}
	}
	if best == nil {
		return nil
	}
	return &models.FitmentMatch{
		VehicleID:   best.ID,
		VehicleSlug: best.Slug,
		VehicleName: best.Name,
		Confidence:  bestScore.Confidence,
		Method:      models.MethodYMMS,
	}
}

type preparedQuery struct {
	make          string
	makeSlug      string
	modelWords    []string
	submodelWords []string
	year          int
}

func prepareQuery(q models.StructuredQuery) preparedQuery {
	mk := normalize.NormalizeMake(q.Make)
	p := preparedQuery{
		make:          mk,
		makeSlug:      normalize.MakeSlug(mk),
		modelWords:    normalize.SignificantWords(normalize.NormalizeModel(q.Model)),
		submodelWords: normalize.SignificantWords(normalize.NormalizeModel(q.SubmodelValue())),
	}
	if q.HasYear() {
		p.year = *q.Year
	}
	return p
}

func (p preparedQuery) isEmpty() bool {
	return p.make == "" && len(p.modelWords) == 0 && len(p.submodelWords) == 0 && p.year == 0
}

func (p preparedQuery) score(v vehicleText) StructuredScore {
	var s StructuredScore

	if p.make != "" && (strings.Contains(v.name, p.make) || strings.Contains(v.slug, p.makeSlug)) {
		s.Make = pointsMake
	}

	if len(p.modelWords) > 0 {
		matches := 0
		for _, w := range p.modelWords {
			if v.has(w) {
				matches++
			}
		}
		s.Model = math.Min(float64(matches)/float64(len(p.modelWords))*pointsModel, pointsModel)
	}

	if p.year > 0 && v.years != nil && v.years.Contains(p.year) {
		s.Year = pointsYear
	}

	for _, w := range p.submodelWords {
		if v.has(w) {
			s.Submodel += pointsSubmodelWord
		}
	}

	s.Total = math.Min(s.Make+s.Model+s.Year+s.Submodel, maxPoints)
	s.Confidence = roundConfidence(s.Total / maxPoints)
	return s
}

// vehicleText is the lowercased, tokenized view of a catalog row.
type vehicleText struct {
	name   string
	slug   string
	tokens map[string]struct{}
	years  *models.YearRange
}

func newVehicleText(v models.CanonicalVehicle) vehicleText {
	name := strings.ToLower(v.Name)
	slug := strings.ToLower(v.Slug)
	tokens := make(map[string]struct{})
	for _, t := range tokenize(name) {
		tokens[t] = struct{}{}
	}
	for _, t := range tokenize(slug) {
		tokens[t] = struct{}{}
	}
	years := normalize.ParseVehicleYearRange(v.Name)
	if years == nil {
		years = normalize.ParseYearRange(v.Slug)
	}
	return vehicleText{name: name, slug: slug, tokens: tokens, years: years}
}

// tokenize splits on anything that is not a letter, digit or an inner dot,
// so "(FK8)" yields "fk8" and "Mk7.5" stays whole.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "."); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (v vehicleText) has(word string) bool {
	_, ok := v.tokens[word]
	return ok
}

func roundConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return math.Round(c*10000) / 10000
}
