package invalidatevehiclecatalog

import "fitment-workers/internal/common/validation"

// Input asks for an immediate reload when Reload is set; otherwise the next
// resolution refetches the catalog.
type Input struct {
	Reload bool `json:"reload"`
}

type Output struct {
	Invalidated bool `json:"catalogInvalidated"`
	Reloaded    bool `json:"catalogReloaded"`
	Size        int  `json:"catalogSize,omitempty"`
}

func (o *Output) variables() map[string]interface{} {
	vars := map[string]interface{}{
		"catalogInvalidated": o.Invalidated,
		"catalogReloaded":    o.Reloaded,
	}
	if o.Reloaded {
		vars["catalogSize"] = o.Size
	}
	return vars
}

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "properties": {
    "reload": {"type": "boolean"}
  }
}`)
