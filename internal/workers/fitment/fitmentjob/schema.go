package fitmentjob

// ResolveInputSchema describes one vehicle description. Workers embed it in their schemas.
const ResolveInputSchema = `{
  "type": "object",
  "properties": {
    "ymms": {
      "type": "object",
      "properties": {
        "year":     {"type": "integer", "minimum": 1900, "maximum": 2100},
        "make":     {"type": "string", "maxLength": 100},
        "model":    {"type": "string", "maxLength": 200},
        "submodel": {"type": ["string", "null"], "maxLength": 200}
      }
    },
    "tags": {
      "type": "array",
      "items": {"type": "string", "maxLength": 200},
      "maxItems": 200
    },
    "text": {"type": "string", "maxLength": 5000}
  }
}`

// OptionProperties are the tuning fields every resolve worker accepts.
const OptionProperties = `
    "minConfidence": {"type": "number", "minimum": 0, "maximum": 1},
    "families": {"type": "array", "items": {"type": "string"}}`
