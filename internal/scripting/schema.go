package scripting

// scriptSchema is the JSON Schema every generated script must satisfy before
// it is accepted. Beat duration bounds here are structural sanity checks;
// total-duration policy is enforced separately against the configured range.
const scriptSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["beats"],
	"properties": {
		"beats": {
			"type": "array",
			"minItems": 3,
			"items": {
				"type": "object",
				"required": ["role", "text", "seconds"],
				"properties": {
					"role": {
						"type": "string",
						"enum": ["hook", "body", "cta"]
					},
					"text": {
						"type": "string",
						"minLength": 1
					},
					"seconds": {
						"type": "number",
						"exclusiveMinimum": 0,
						"maximum": 60
					}
				},
				"additionalProperties": false
			}
		}
	}
}`
