package extraction

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is the shape contract with the extraction service. Rows with
// unusable values (no date, bad direction) still pass the schema; the
// normalizer tallies those as malformed instead of failing the statement.
const responseSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["bank_name", "account_number_last4", "rows"],
	"properties": {
		"bank_name": {"type": "string"},
		"account_number_last4": {"type": "string"},
		"period_start": {"type": ["string", "null"]},
		"period_end": {"type": ["string", "null"]},
		"opening_balance": {"type": ["string", "number", "null"]},
		"closing_balance": {"type": ["string", "number", "null"]},
		"rows": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["description", "amount", "direction", "confidence"],
				"properties": {
					"date": {"type": ["string", "null"]},
					"description": {"type": "string"},
					"amount": {"type": ["string", "number"]},
					"direction": {"type": "string"},
					"balance": {"type": ["string", "number", "null"]},
					"reference": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		}
	}
}`

var compiledResponseSchema = jsonschema.MustCompileString("extract_response.json", responseSchema)

// validateResponse checks the raw body against the schema before decoding.
func validateResponse(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}
	return compiledResponseSchema.Validate(v)
}
