package replay

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// EventSchema is the JSON schema every recording line must satisfy
const EventSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["event"],
  "properties": {
    "event": {
      "enum": ["runStarted", "suiteStarted", "specStarted", "specDone", "suiteDone", "runFinished"]
    },
    "id": {"type": "string"},
    "description": {"type": "string"},
    "status": {"type": "string"},
    "pendingReason": {"type": "string"},
    "totalSpecsDefined": {"type": "integer", "minimum": 0},
    "time": {"type": ["string", "integer"]},
    "failedExpectations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["message"],
        "properties": {
          "message": {"type": "string"},
          "stack": {"type": "string"},
          "matcherName": {"type": "string"}
        }
      }
    }
  },
  "allOf": [
    {
      "if": {"properties": {"event": {"enum": ["suiteStarted", "specStarted", "specDone", "suiteDone"]}}},
      "then": {"required": ["id"]}
    },
    {
      "if": {"properties": {"event": {"const": "specDone"}}},
      "then": {"required": ["status"]}
    }
  ]
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func eventSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(EventSchema))
	})
	return schema, schemaErr
}

// Validate checks every line of r against EventSchema and returns one
// LineError per offending line. The error is set only when r cannot be read.
func Validate(r io.Reader) ([]*LineError, error) {
	s, err := eventSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}

	var problems []*LineError
	err = scan(r, func(n int, line []byte) error {
		result, err := s.Validate(gojsonschema.NewBytesLoader(line))
		if err != nil {
			problems = append(problems, &LineError{Line: n, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)})
			return nil
		}
		if result.Valid() {
			return nil
		}
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		problems = append(problems, &LineError{Line: n, Err: fmt.Errorf("%s", strings.Join(msgs, "; "))})
		return nil
	})
	return problems, err
}
