package scoring

import (
	"sort"
	"strings"

	"fitment-workers/internal/fitment/normalize"
	"fitment-workers/internal/models"
)

// TagScorer scores vendor tags against the platform family table.
type TagScorer struct {
	families []Family
}

// NewTagScorer builds a scorer over families. Nil selects DefaultFamilies.
func NewTagScorer(families []Family) *TagScorer {
	if families == nil {
		families = DefaultFamilies()
	}
	return &TagScorer{families: families}
}

// Families returns the family keys in table order.
func (s *TagScorer) Families() []string {
	keys := make([]string, len(s.families))
	for i, f := range s.families {
		keys[i] = f.Key
	}
	return keys
}

// FamilyScore is the per-family accumulation before catalog resolution.
type FamilyScore struct {
	Family      Family
	Confidence  float64
	MatchedTags []string
	Years       []models.YearRange
}

// ScoreFamilies tests every tag against every family and returns the families at or above
// floor, ordered by confidence descending then table order. only restricts the table when non-empty.
func (s *TagScorer) ScoreFamilies(tags []string, floor float64, only []string) []FamilyScore {
	cleaned := cleanTags(tags)
	if len(cleaned) == 0 {
		return []FamilyScore{}
	}

	var tagYears []models.YearRange
	yearTags := make(map[string]models.YearRange)
	for _, tag := range cleaned {
		if r := normalize.ParseYearRange(tag); r != nil {
			tagYears = append(tagYears, *r)
			yearTags[tag] = *r
		}
	}

	allowed := familyFilter(only)
	out := []FamilyScore{}
	for _, fam := range s.families {
		if allowed != nil && !allowed[fam.Key] {
			continue
		}

		matched := make(map[string]bool)
		confidence := 0.0
		for _, pat := range fam.Patterns {
			hit := false
			for _, tag := range cleaned {
				if pat.Pattern.MatchString(tag) {
					hit = true
					matched[tag] = true
				}
			}
			if hit {
				confidence += pat.Weight
			}
		}
		if len(matched) == 0 {
			continue
		}

		if fam.Years != nil {
			for tag, r := range yearTags {
				if overlaps(*fam.Years, r) {
					matched[tag] = true
				}
			}
			for _, r := range tagYears {
				if overlaps(*fam.Years, r) {
					confidence += YearBonus
					break
				}
			}
		}

		confidence = roundConfidence(confidence)
		if confidence < floor {
			continue
		}
		out = append(out, FamilyScore{
			Family:      fam,
			Confidence:  confidence,
			MatchedTags: sortedKeys(matched),
			Years:       tagYears,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Score resolves surviving families to catalog vehicles. Families whose slug is not in the
// snapshot are dropped.
func (s *TagScorer) Score(tags []string, vehicles []models.CanonicalVehicle, floor float64, only []string) []models.FitmentMatch {
	scored := s.ScoreFamilies(tags, floor, only)
	matches := make([]models.FitmentMatch, 0, len(scored))
	for _, fs := range scored {
		v := resolveFamily(fs.Family, fs.Years, vehicles)
		if v == nil {
			continue
		}
		matches = append(matches, models.FitmentMatch{
			VehicleID:   v.ID,
			VehicleSlug: v.Slug,
			VehicleName: v.Name,
			Confidence:  fs.Confidence,
			Method:      models.MethodPattern,
			MatchedTags: fs.MatchedTags,
		})
	}
	return matches
}

// resolveFamily picks the catalog row for a family: a slug equal to or prefixed by the family
// slug, preferring a row whose year window covers a tagged year.
func resolveFamily(fam Family, tagYears []models.YearRange, vehicles []models.CanonicalVehicle) *models.CanonicalVehicle {
	var first *models.CanonicalVehicle
	for i := range vehicles {
		slug := strings.ToLower(vehicles[i].Slug)
		if slug != fam.Slug && !strings.HasPrefix(slug, fam.Slug+"-") {
			continue
		}
		if first == nil {
			first = &vehicles[i]
		}
		if len(tagYears) == 0 {
			break
		}
		if r := normalize.ParseVehicleYearRange(vehicles[i].Name); r != nil {
			for _, ty := range tagYears {
				if overlaps(*r, ty) {
					return &vehicles[i]
				}
			}
		}
	}
	return first
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func familyFilter(only []string) map[string]bool {
	if len(only) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(only))
	for _, k := range only {
		allowed[strings.ToLower(strings.TrimSpace(k))] = true
	}
	return allowed
}

func overlaps(a, b models.YearRange) bool {
	return a.Start <= b.End && b.Start <= a.End
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
