package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the catalog document major version this build reads.
const SupportedMajor = "v1"

const videoListSchemaURL = "schema://remediz/video-list.json"

const videoListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "titre", "niveau"],
    "properties": {
      "id":        {"type": "string", "minLength": 1},
      "titre":     {"type": "string"},
      "videoUrl":  {"type": ["string", "null"]},
      "niveau":    {"type": "string", "minLength": 1},
      "matiere":   {"type": ["string", "null"]},
      "notions":   {"type": ["array", "null"], "items": {"type": "string"}},
      "prerequis": {"type": ["array", "null"], "items": {"type": "string"}},
      "mois":      {"type": ["array", "null"], "items": {"type": "string"}},
      "questions": {
        "type": ["array", "null"],
        "items": {
          "type": "object",
          "required": ["id", "question", "bonne_reponse"],
          "properties": {
            "id":            {"type": "string", "minLength": 1},
            "question":      {"type": "string"},
            "choix":         {"type": ["array", "null"], "items": {"type": "string"}},
            "bonne_reponse": {"type": "string"},
            "duration":      {"type": ["integer", "null"], "minimum": 0}
          }
        }
      }
    }
  }
}`

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

// videoSchema returns the compiled video-list schema.
func videoSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(strings.NewReader(videoListSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(videoListSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(videoListSchemaURL)
	})
	return compiled, compileErr
}

// Format identifies the encoding of a catalog document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Decode parses a catalog document. The document is either a bare list of
// video records or an object {version, videos}. The record list is
// validated against the catalog schema before decoding.
func Decode(data []byte, format Format) ([]Video, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &SchemaError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	list := doc
	if obj, ok := doc.(map[string]any); ok {
		if err := checkVersion(obj["version"]); err != nil {
			return nil, err
		}
		list = obj["videos"]
		if list == nil {
			list = []any{}
		}
	}

	sch, err := videoSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := sch.Validate(list); err != nil {
		return nil, &SchemaError{Err: err}
	}

	listJSON, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("re-encode video list: %w", err)
	}
	var videos []Video
	if err := json.Unmarshal(listJSON, &videos); err != nil {
		return nil, &SchemaError{Err: fmt.Errorf("decode videos: %w", err)}
	}
	return normalize(videos), nil
}

// toJSON converts a YAML document to JSON. JSON input is returned as is.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatJSON {
		return data, nil
	}
	var parsed any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, &SchemaError{Err: fmt.Errorf("invalid YAML: %w", err)}
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return nil, &SchemaError{Err: fmt.Errorf("YAML is not JSON-compatible: %w", err)}
	}
	return out, nil
}

// checkVersion accepts a missing version or any valid semver with the
// supported major version.
func checkVersion(v any) error {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return &SchemaError{Err: fmt.Errorf("version must be a string, got %T", v)}
	}
	if !semver.IsValid(s) {
		return &SchemaError{Err: fmt.Errorf("version %q is not valid semver", s)}
	}
	if major := semver.Major(s); major != SupportedMajor {
		return &SchemaError{Err: fmt.Errorf("unsupported catalog version %s (want %s.x)", s, SupportedMajor)}
	}
	return nil
}
