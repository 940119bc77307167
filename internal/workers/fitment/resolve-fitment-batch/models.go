package resolvefitmentbatch

import (
	"fmt"

	"fitment-workers/internal/common/validation"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"
)

type Input struct {
	Items         []models.ResolveInput `json:"items"`
	MinConfidence *float64              `json:"minConfidence,omitempty"`
	Families      []string              `json:"families,omitempty"`
}

// Output keys matches by the decimal item index; unresolved items are listed separately.
type Output struct {
	Matches         map[string]*models.FitmentMatch `json:"fitmentMatches"`
	ResolvedCount   int                             `json:"fitmentResolvedCount"`
	UnresolvedItems []int                           `json:"fitmentUnresolvedItems"`
}

func (o *Output) variables() map[string]interface{} {
	return map[string]interface{}{
		"fitmentMatches":         o.Matches,
		"fitmentResolvedCount":   o.ResolvedCount,
		"fitmentUnresolvedItems": o.UnresolvedItems,
	}
}

var inputSchema = validation.MustCompile(TaskType, fmt.Sprintf(`{
  "type": "object",
  "properties": {
    "items": {"type": "array", "items": %s},%s
  },
  "required": ["items"]
}`, fitmentjob.ResolveInputSchema, fitmentjob.OptionProperties))
