package scoring

import (
	"regexp"
	"strings"
)

// chassisCodes is the vocabulary pulled out of free text as standalone tags.
var chassisCodes = []string{
	`mk\s?[4-8](?:\.5)?`,
	`e30`, `e36`, `e46`, `e90`, `e92`, `f80`, `f82`, `g80`, `g82`,
	`996`, `997(?:\.[12])?`, `991(?:\.[12])?`, `992`,
	`fk8`, `fl5`, `ep3`, `dc5`,
	`r32`, `r33`, `r34`, `r35`,
	`s197`, `s550`, `s650`,
	`a80`, `a90`,
	`nd[12]?`, `va`, `vb`,
}

// modelNames is the model vocabulary pulled out of free text.
var modelNames = []string{
	`gti`, `golf\s*r`, `m2`, `m3`, `m4`, `m5`, `911`, `wrx`, `sti`,
	`type[\s-]?r`, `civic`, `gt[\s-]?r`, `skyline`, `mustang`, `camaro`,
	`supra`, `mx[\s-]?5`, `miata`, `3[\s-]?series`,
}

var (
	yearTagRe    = regexp.MustCompile(`\b(?:19|20)\d{2}\b(?:\s*[-–]\s*(?:(?:19|20)\d{2}|present)\b|\+)?`)
	chassisTagRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(chassisCodes, "|") + `)\b`)
	modelTagRe   = regexp.MustCompile(`(?i)\b(?:` + strings.Join(modelNames, "|") + `)\b`)
)

// ExtractTags pulls candidate tags out of free text: the whole text, year expressions,
// chassis codes and model names. Duplicates (case-insensitive) are dropped, first occurrence wins.
func ExtractTags(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	tags := []string{text}
	seen := map[string]bool{strings.ToLower(text): true}
	add := func(found []string) {
		for _, f := range found {
			f = strings.TrimSpace(f)
			key := strings.ToLower(f)
			if f == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, f)
		}
	}

	add(yearTagRe.FindAllString(text, -1))
	add(chassisTagRe.FindAllString(text, -1))
	add(modelTagRe.FindAllString(text, -1))
	return tags
}
