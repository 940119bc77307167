// Package normalize canonicalizes free-text make, model and year expressions
// before they are scored against the vehicle catalog.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"fitment-workers/internal/models"
)

// makeAliases maps nicknames and abbreviations to the canonical make token.
var makeAliases = map[string]string{
	"chevy":         "chevrolet",
	"gm":            "chevrolet",
	"chev":          "chevrolet",
	"mercedes":      "mercedes-benz",
	"mb":            "mercedes-benz",
	"merc":          "mercedes-benz",
	"benz":          "mercedes-benz",
	"mercedes benz": "mercedes-benz",
	"vw":            "volkswagen",
	"vdub":          "volkswagen",
	"bimmer":        "bmw",
	"beemer":        "bmw",
	"alfa":          "alfa romeo",
	"landrover":     "land rover",
	"mini cooper":   "mini",
}

// bodyStyleSuffixes are trailing words stripped from model names.
var bodyStyleSuffixes = []string{
	"sedan", "coupe", "hatchback", "wagon", "convertible", "roadster", "cab", "spyder",
}

var (
	separatorRe   = regexp.MustCompile(`[-_]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	bodySuffixRe  = regexp.MustCompile(`\s+(?:` + strings.Join(bodyStyleSuffixes, "|") + `)$`)
	explicitRange = regexp.MustCompile(`\b((?:19|20)\d{2})\s*[-–/]\s*((?:19|20)\d{2})\b`)
	presentRange  = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*[-–]?\s*(?:present|current|now)\b`)
	openRange     = regexp.MustCompile(`\b((?:19|20)\d{2})\s*\+`)
	bareYear      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

// now is swapped in tests.
var now = time.Now

// yearShape records which textual form produced a YearRange.
type yearShape int

const (
	shapeNone yearShape = iota
	shapeExplicit
	shapeOpen
	shapeSingle
)

// VehicleYearTolerance widens a single catalog year on both sides.
const VehicleYearTolerance = 2

// NormalizeMake lowercases, trims and resolves aliases. Unknown makes pass through lowercased.
func NormalizeMake(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if canonical, ok := makeAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeModel lowercases, trims, turns hyphens/underscores into spaces,
// strips trailing body-style words and collapses whitespace.
func NormalizeModel(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = separatorRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for {
		stripped := bodySuffixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = strings.TrimSpace(stripped)
	}
	return s
}

// MakeSlug turns a normalized make into its slug form ("land rover" -> "land-rover").
func MakeSlug(normalizedMake string) string {
	return strings.ReplaceAll(normalizedMake, " ", "-")
}

// SignificantWords splits s on whitespace and drops single-character words.
func SignificantWords(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// ParseYearRange recognizes "YYYY-YYYY", "YYYY-present", "YYYY+" and bare "YYYY", in that order.
// Open ranges run through next calendar year. It returns nil when no 19xx/20xx year is present.
func ParseYearRange(raw string) *models.YearRange {
	r, _ := parseYearRange(raw)
	return r
}

// ParseVehicleYearRange reads the model-year window out of a catalog display name.
// A single year is widened by VehicleYearTolerance on each side.
func ParseVehicleYearRange(name string) *models.YearRange {
	r, shape := parseYearRange(name)
	if r == nil {
		return nil
	}
	if shape == shapeSingle {
		return &models.YearRange{Start: r.Start - VehicleYearTolerance, End: r.End + VehicleYearTolerance}
	}
	return r
}

// ExtractYears returns every 19xx/20xx year in s, in order of appearance.
func ExtractYears(s string) []int {
	matches := bareYear.FindAllStringSubmatch(s, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		if y, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, y)
		}
	}
	return out
}

func parseYearRange(raw string) (*models.YearRange, yearShape) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, shapeNone
	}
	openEnd := now().Year() + 1

	if m := explicitRange.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > end {
			start, end = end, start
		}
		return &models.YearRange{Start: start, End: end}, shapeExplicit
	}
	if m := presentRange.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		return &models.YearRange{Start: start, End: openEnd}, shapeOpen
	}
	if m := openRange.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		return &models.YearRange{Start: start, End: openEnd}, shapeOpen
	}
	if m := bareYear.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &models.YearRange{Start: year, End: year}, shapeSingle
	}
	return nil, shapeNone
}
