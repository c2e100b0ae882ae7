// Package schema performs JSON Schema shape checks on a subscriber profile
// and reports the violations into a model.FieldErrors tree, so that the
// uniqueness checks of package validator can be appended onto the same tree.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
)

// ProfileSchema is the built-in shape of a subscriber profile.
const ProfileSchema = `{
  "type": "object",
  "required": ["imsi", "security", "ambr"],
  "properties": {
    "_id": {"type": "string"},
    "imsi": {"type": "string", "pattern": "^\\d+$", "maxLength": 15},
    "security": {
      "type": "object",
      "required": ["k", "amf"],
      "properties": {
        "k": {"type": "string"},
        "op": {"type": "string"},
        "opc": {"type": "string"},
        "amf": {"type": "string"}
      }
    },
    "ambr": {"$ref": "#/$defs/bitrate"},
    "pdn": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["apn"],
        "properties": {
          "apn": {"type": "string", "minLength": 1},
          "qos": {
            "type": "object",
            "properties": {
              "qci": {"type": "number"},
              "arp": {
                "type": "object",
                "properties": {
                  "priority_level": {"type": "number", "minimum": 1, "maximum": 15},
                  "pre_emption_capability": {"type": "number"},
                  "pre_emption_vulnerability": {"type": "number"}
                }
              },
              "mbr": {"$ref": "#/$defs/bitrate"},
              "gbr": {"$ref": "#/$defs/bitrate"}
            }
          }
        }
      }
    }
  },
  "$defs": {
    "bitrate": {
      "type": "object",
      "properties": {
        "downlink": {"type": ["number", "null"], "minimum": 0},
        "uplink": {"type": ["number", "null"], "minimum": 0}
      }
    }
  }
}`

// aggregateKeywords only summarise failures of nested schemas; the nested
// failures are reported on their own instance locations.
var aggregateKeywords = map[string]struct{}{
	"properties":        {},
	"patternProperties": {},
	"items":             {},
	"prefixItems":       {},
	"allOf":             {},
	"$ref":              {},
	"$dynamicRef":       {},
}

// Checker validates records against one compiled schema. It is safe for
// concurrent use.
type Checker struct {
	compiled *jsonschema.Schema
}

// NewChecker compiles schemaJSON. An empty document selects ProfileSchema.
func NewChecker(schemaJSON []byte) (*Checker, error) {
	if len(strings.TrimSpace(string(schemaJSON))) == 0 {
		schemaJSON = []byte(ProfileSchema)
	}

	compiler := jsonschema.NewCompiler()
	compiled, compileError := compiler.Compile(schemaJSON)
	if compileError != nil {
		return nil, fmt.Errorf("failed to compile profile schema: %w", compileError)
	}
	return &Checker{compiled: compiled}, nil
}

// Check evaluates record and appends every shape violation to errs at the
// path of the offending instance. It returns errs, allocating it when nil.
func (checker *Checker) Check(record *model.Value, errs *model.FieldErrors) *model.FieldErrors {
	if errs == nil {
		errs = model.NewFieldErrors()
	}

	result := checker.compiled.Validate(record.Interface())
	if result == nil || result.Valid {
		return errs
	}

	reported := collect(result, errs)
	logger.SchemaLog.Debugf("schema check reported %d violation(s)", reported)
	return errs
}

func collect(result *jsonschema.EvaluationResult, errs *model.FieldErrors) int {
	if result == nil || result.Valid {
		return 0
	}

	reported := 0
	keywords := make([]string, 0, len(result.Errors))
	for keyword := range result.Errors {
		if _, aggregate := aggregateKeywords[keyword]; aggregate {
			continue
		}
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)

	if len(keywords) > 0 {
		node := errs.At(pointerToPath(result.InstanceLocation)...)
		for _, keyword := range keywords {
			node.AddError(result.Errors[keyword].Error())
			reported++
		}
	}

	for _, detail := range result.Details {
		reported += collect(detail, errs)
	}
	return reported
}

// pointerToPath splits a JSON pointer ("/pdn/0/apn") into its unescaped
// reference tokens.
func pointerToPath(pointer string) []string {
	trimmed := strings.TrimPrefix(pointer, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	tokens := strings.Split(trimmed, "/")
	for index, token := range tokens {
		token = strings.ReplaceAll(token, "~1", "/")
		tokens[index] = strings.ReplaceAll(token, "~0", "~")
	}
	return tokens
}
