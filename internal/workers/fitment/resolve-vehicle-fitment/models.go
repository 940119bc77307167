package resolvevehiclefitment

import (
	"fmt"

	"fitment-workers/internal/common/validation"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"
)

// Input is one vehicle description. Any combination of ymms, tags and text may be set.
type Input struct {
	YMMS          *models.StructuredQuery `json:"ymms,omitempty"`
	Tags          []string                `json:"tags,omitempty"`
	Text          string                  `json:"text,omitempty"`
	MinConfidence *float64                `json:"minConfidence,omitempty"`
	Families      []string                `json:"families,omitempty"`
}

func (in *Input) resolveInput() models.ResolveInput {
	return models.ResolveInput{YMMS: in.YMMS, Tags: in.Tags, Text: in.Text}
}

// Output carries the best match; its method is "ymms", "pattern" or "text".
type Output struct {
	Match    *models.FitmentMatch `json:"fitmentMatch"`
	Resolved bool                 `json:"fitmentResolved"`
}

func (o *Output) variables() map[string]interface{} {
	vars := map[string]interface{}{
		"fitmentResolved": o.Resolved,
		"fitmentMatch":    nil,
	}
	if o.Match != nil {
		vars["fitmentMatch"] = o.Match
		vars["vehicleSlug"] = o.Match.VehicleSlug
	}
	return vars
}

var inputSchema = validation.MustCompile(TaskType, fmt.Sprintf(`{
  "allOf": [
    %s,
    {"type": "object", "properties": {%s}}
  ]
}`, fitmentjob.ResolveInputSchema, fitmentjob.OptionProperties))
