package resolvevendortags

import (
	"fmt"

	"fitment-workers/internal/common/validation"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"
)

type Input struct {
	VendorKey     string   `json:"vendorKey"`
	Tags          []string `json:"tags"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
	Families      []string `json:"families,omitempty"`
}

// Output maps each resolved tag to its match. A match's method is "learned" when a stored
// vendor mapping answered without scoring, otherwise "pattern".
type Output struct {
	Matches        map[string]*models.FitmentMatch `json:"vendorTagMatches"`
	UnresolvedTags []string                        `json:"unresolvedVendorTags"`
	LearnedCount   int                             `json:"learnedVendorTagCount"`
}

func (o *Output) variables() map[string]interface{} {
	return map[string]interface{}{
		"vendorTagMatches":      o.Matches,
		"unresolvedVendorTags":  o.UnresolvedTags,
		"learnedVendorTagCount": o.LearnedCount,
	}
}

var inputSchema = validation.MustCompile(TaskType, fmt.Sprintf(`{
  "type": "object",
  "properties": {
    "vendorKey": {"type": "string", "minLength": 1, "maxLength": 100},
    "tags": {"type": "array", "items": {"type": "string", "maxLength": 200}, "maxItems": 500},%s
  },
  "required": ["vendorKey", "tags"]
}`, fitmentjob.OptionProperties))
