package scoring

import (
	"regexp"

	"fitment-workers/internal/models"
)

// YearBonus is added to a family whose model-year window covers a year tag,
// once at least one platform pattern has matched.
const YearBonus = 0.15

// PlatformPattern is one weighted signal for a vehicle family.
type PlatformPattern struct {
	Pattern *regexp.Regexp
	Weight  float64
}

// Family is a vehicle platform generation and the catalog slug prefix it resolves to.
type Family struct {
	Key      string
	Slug     string
	Years    *models.YearRange
	Patterns []PlatformPattern
}

func p(expr string, weight float64) PlatformPattern {
	return PlatformPattern{Pattern: regexp.MustCompile(`(?i)` + expr), Weight: weight}
}

func years(start, end int) *models.YearRange {
	return &models.YearRange{Start: start, End: end}
}

// openEnded marks a generation still in production.
const openEnded = 9999

var defaultFamilies = []Family{
	{
		Key: "volkswagen-golf-gti-mk7", Slug: "volkswagen-golf-gti-mk7", Years: years(2015, 2021),
		Patterns: []PlatformPattern{p(`\bgti\b`, 0.6), p(`\bmk\s?7(\.5)?\b`, 0.3)},
	},
	{
		Key: "volkswagen-golf-r-mk7", Slug: "volkswagen-golf-r-mk7", Years: years(2015, 2020),
		Patterns: []PlatformPattern{p(`\bgolf\s*r\b`, 0.6), p(`\bmk\s?7(\.5)?\b`, 0.3)},
	},
	{
		Key: "volkswagen-golf-r-mk8", Slug: "volkswagen-golf-r-mk8", Years: years(2022, openEnded),
		Patterns: []PlatformPattern{p(`\bgolf\s*r\b`, 0.6), p(`\bmk\s?8\b`, 0.3)},
	},
	{
		Key: "bmw-e46-m3", Slug: "bmw-m3-e46", Years: years(2001, 2006),
		Patterns: []PlatformPattern{p(`\be46\b`, 0.45), p(`\bm3\b`, 0.45), p(`\be46\s*m3\b|\bm3\s*e46\b`, 0.1)},
	},
	{
		Key: "bmw-e46-3-series", Slug: "bmw-3-series-e46", Years: years(1999, 2006),
		Patterns: []PlatformPattern{p(`\be46\b`, 0.5), p(`\b3[\s-]?series\b`, 0.3), p(`\b3(18|20|23|25|28|30)(i|ci|xi)?\b`, 0.3)},
	},
	{
		Key: "bmw-f80-m3", Slug: "bmw-m3-f80", Years: years(2014, 2018),
		Patterns: []PlatformPattern{p(`\bf80\b`, 0.45), p(`\bm3\b`, 0.45)},
	},
	{
		Key: "bmw-g80-m3", Slug: "bmw-m3-g80", Years: years(2021, openEnded),
		Patterns: []PlatformPattern{p(`\bg80\b`, 0.45), p(`\bm3\b`, 0.45)},
	},
	{
		Key: "porsche-911-997", Slug: "porsche-911-997", Years: years(2005, 2012),
		Patterns: []PlatformPattern{p(`\b997(\.[12])?\b`, 0.6), p(`\b911\b`, 0.3)},
	},
	{
		Key: "porsche-911-991", Slug: "porsche-911-991", Years: years(2012, 2019),
		Patterns: []PlatformPattern{p(`\b991(\.[12])?\b`, 0.6), p(`\b911\b`, 0.3)},
	},
	{
		Key: "honda-civic-type-r-fk8", Slug: "honda-civic-type-r-fk8", Years: years(2017, 2021),
		Patterns: []PlatformPattern{p(`\bfk8\b`, 0.6), p(`\btype[\s-]?r\b`, 0.4), p(`\bcivic\b`, 0.1)},
	},
	{
		Key: "honda-civic-type-r-fl5", Slug: "honda-civic-type-r-fl5", Years: years(2023, openEnded),
		Patterns: []PlatformPattern{p(`\bfl5\b`, 0.6), p(`\btype[\s-]?r\b`, 0.4), p(`\bcivic\b`, 0.1)},
	},
	{
		Key: "nissan-gt-r-r35", Slug: "nissan-gt-r-r35", Years: years(2009, openEnded),
		Patterns: []PlatformPattern{p(`\br35\b`, 0.6), p(`\bgt[\s-]?r\b`, 0.5)},
	},
	{
		Key: "nissan-skyline-gt-r-r34", Slug: "nissan-skyline-gt-r-r34", Years: years(1999, 2002),
		Patterns: []PlatformPattern{p(`\br34\b`, 0.6), p(`\bskyline\b`, 0.3), p(`\bgt[\s-]?r\b`, 0.2)},
	},
	{
		Key: "subaru-wrx-va", Slug: "subaru-wrx-va", Years: years(2015, 2021),
		Patterns: []PlatformPattern{p(`\bwrx\b`, 0.5), p(`\bsti\b`, 0.2), p(`\bva\b`, 0.3)},
	},
	{
		Key: "subaru-wrx-vb", Slug: "subaru-wrx-vb", Years: years(2022, openEnded),
		Patterns: []PlatformPattern{p(`\bwrx\b`, 0.5), p(`\bvb\b`, 0.3)},
	},
	{
		Key: "ford-mustang-s550", Slug: "ford-mustang-s550", Years: years(2015, 2023),
		Patterns: []PlatformPattern{p(`\bs550\b`, 0.6), p(`\bmustang\b`, 0.4), p(`\bgt350r?\b`, 0.2)},
	},
	{
		Key: "chevrolet-camaro-6th-gen", Slug: "chevrolet-camaro", Years: years(2016, 2024),
		Patterns: []PlatformPattern{p(`\bcamaro\b`, 0.5), p(`\b(zl1|ss|1le)\b`, 0.2), p(`\b6th[\s-]?gen\b`, 0.2)},
	},
	{
		Key: "toyota-gr-supra-a90", Slug: "toyota-gr-supra-a90", Years: years(2020, openEnded),
		Patterns: []PlatformPattern{p(`\ba90\b`, 0.6), p(`\bsupra\b`, 0.4)},
	},
	{
		Key: "mazda-mx-5-nd", Slug: "mazda-mx-5-nd", Years: years(2016, openEnded),
		Patterns: []PlatformPattern{p(`\bnd[12]?\b`, 0.4), p(`\bmx[\s-]?5\b|\bmiata\b`, 0.5)},
	},
}

// DefaultFamilies returns the built-in platform table.
func DefaultFamilies() []Family {
	out := make([]Family, len(defaultFamilies))
	copy(out, defaultFamilies)
	return out
}
