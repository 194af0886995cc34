package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Schema is a parsed JSON schema used to validate widget values.
type Schema struct {
	raw    json.RawMessage
	schema *openapi3.Schema
}

// ParseSchema parses a JSON or YAML schema document.
func ParseSchema(raw []byte) (*Schema, error) {
	raw, err := toJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("widget: parse schema: %w", err)
	}
	var s openapi3.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("widget: parse schema: %w", err)
	}
	return &Schema{raw: raw, schema: &s}, nil
}

// MustParseSchema panics if raw cannot be parsed. Useful for tests.
func MustParseSchema(raw string) *Schema {
	s, err := ParseSchema([]byte(raw))
	if err != nil {
		panic(err)
	}
	return s
}

// LoadSchema reads src and parses it as a schema.
func LoadSchema(ctx context.Context, src Source, options ...LoadOption) (*Schema, error) {
	raw, err := ReadSource(ctx, src, options...)
	if err != nil {
		return nil, fmt.Errorf("widget: load schema %s: %w", src.Location, err)
	}
	return ParseSchema(raw)
}

// SchemaFromOpenAPI loads an OpenAPI 3 document and returns the schema
// registered under components.schemas.<component>, with references resolved.
func SchemaFromOpenAPI(ctx context.Context, raw []byte, component string) (*Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("widget: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("widget: load openapi document: %w", err)
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("widget: openapi document has no components")
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("widget: component schema %q not found", component)
	}
	encoded, err := json.Marshal(ref.Value)
	if err != nil {
		return nil, fmt.Errorf("widget: encode component %q: %w", component, err)
	}
	return &Schema{raw: encoded, schema: ref.Value}, nil
}

// OpenAPI exposes the underlying kin-openapi schema.
func (s *Schema) OpenAPI() *openapi3.Schema {
	return s.schema
}

// MarshalJSON returns the schema document.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil || len(s.raw) == 0 {
		return []byte("null"), nil
	}
	return append([]byte(nil), s.raw...), nil
}

// Validate checks value against the schema and returns every issue found,
// ordered by path.
func (s *Schema) Validate(value any) []Issue {
	if s == nil || s.schema == nil {
		return nil
	}
	err := s.schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	var issues []Issue
	collectIssues(err, &issues)
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}

func collectIssues(err error, out *[]Issue) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectIssues(inner, out)
		}
	case *openapi3.SchemaError:
		pointer := e.JSONPointer()
		issue := Issue{Path: ElementPath(pointer...), Message: e.Reason}
		if len(pointer) > 0 {
			issue.Property = pointer[len(pointer)-1]
		}
		if issue.Message == "" {
			issue.Message = e.Error()
		}
		*out = append(*out, issue)
	default:
		*out = append(*out, Issue{Path: RootPath, Message: err.Error()})
	}
}

// ElementPath joins segments under the root element path.
func ElementPath(segments ...string) string {
	if len(segments) == 0 {
		return RootPath
	}
	return RootPath + "." + strings.Join(segments, ".")
}

// Ancestors returns path followed by each tail-truncated prefix, down to the
// first segment.
func Ancestors(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for n := len(parts); n > 0; n-- {
		out = append(out, strings.Join(parts[:n], "."))
	}
	return out
}

// ValuePaths lists the element paths present in a document: the root, every
// object property and every array index, depth first.
func ValuePaths(value any) []string {
	var out []string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		out = append(out, prefix)
		switch typed := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(typed))
			for k := range typed {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(prefix+"."+k, typed[k])
			}
		case []any:
			for i, item := range typed {
				walk(prefix+"."+strconv.Itoa(i), item)
			}
		}
	}
	walk(RootPath, value)
	return out
}

// SchemaPaths lists the element paths declared by object properties in the
// schema. Array items are not expanded since their indices depend on data.
func (s *Schema) SchemaPaths() []string {
	if s == nil || s.schema == nil {
		return nil
	}
	var out []string
	seen := map[*openapi3.Schema]bool{}
	var walk func(prefix string, schema *openapi3.Schema)
	walk = func(prefix string, schema *openapi3.Schema) {
		out = append(out, prefix)
		if schema == nil || seen[schema] {
			return
		}
		seen[schema] = true
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := schema.Properties[name]
			var child *openapi3.Schema
			if ref != nil {
				child = ref.Value
			}
			walk(prefix+"."+name, child)
		}
	}
	walk(RootPath, s.schema)
	return out
}

func toJSON(raw []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, errors.New("empty document")
	}
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
