package form

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const maxTextLength = 2000

var (
	sectionSchemas    [SectionCount]*gojsonschema.Schema
	sectionSchemaErr  [SectionCount]error
	sectionSchemaOnce [SectionCount]sync.Once

	collectionSchemas sync.Map // CollectionKind -> *gojsonschema.Schema
)

func fieldSchema(f Field) map[string]any {
	switch f.Kind {
	case KindDate:
		return map[string]any{
			"type":    []string{"string", "null"},
			"pattern": `^(\d{4}-\d{2}-\d{2})?$`,
		}
	case KindBool:
		return map[string]any{"enum": []any{TokenTrue, TokenFalse, "", nil}}
	default:
		return map[string]any{
			"type":      []string{"string", "null"},
			"maxLength": maxTextLength,
		}
	}
}

func objectSchema(fields []Field, extra map[string]any) map[string]any {
	props := make(map[string]any, len(fields)+len(extra))
	for _, f := range fields {
		props[f.Key] = fieldSchema(f)
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// SchemaDocument renders the JSON Schema accepted by a section's save and
// submit endpoints.
func (s Section) SchemaDocument() map[string]any {
	doc := objectSchema(s.Fields, nil)
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	doc["title"] = s.Title
	return doc
}

// SchemaDocument renders the JSON Schema of a collection snapshot: an array
// of items, each carrying its id.
func (c Collection) SchemaDocument() map[string]any {
	item := objectSchema(c.Fields, map[string]any{
		"id": map[string]any{"type": "string", "minLength": 1},
	})
	item["required"] = []string{"id"}
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   string(c.Kind),
		"type":    []string{"array", "null"},
		"items":   item,
	}
}

func (s Section) schema() (*gojsonschema.Schema, error) {
	sectionSchemaOnce[s.Index].Do(func() {
		sectionSchemas[s.Index], sectionSchemaErr[s.Index] = gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.SchemaDocument()))
	})
	return sectionSchemas[s.Index], sectionSchemaErr[s.Index]
}

func (c Collection) schema() (*gojsonschema.Schema, error) {
	if cached, ok := collectionSchemas.Load(c.Kind); ok {
		return cached.(*gojsonschema.Schema), nil
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(c.SchemaDocument()))
	if err != nil {
		return nil, err
	}
	collectionSchemas.Store(c.Kind, compiled)
	return compiled, nil
}

// checkShape validates body against schema and returns a message naming the
// first offending field, or "" when the document conforms.
func checkShape(schema *gojsonschema.Schema, body []byte, label func(string) string) (string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", err
	}
	if result.Valid() {
		return "", nil
	}
	first := result.Errors()[0]
	if first.Type() == "additional_property_not_allowed" {
		return fmt.Sprintf("unknown field %v", first.Details()["property"]), nil
	}
	return fmt.Sprintf("invalid value for %s: %s", label(first.Field()), first.Description()), nil
}

func (s Section) labelFor(path string) string {
	if f, ok := s.Field(path); ok {
		return f.Label
	}
	return path
}

func (c Collection) labelFor(path string) string {
	// array paths look like "2.name"
	parts := strings.SplitN(path, ".", 2)
	if len(parts) == 2 {
		if f, ok := c.Field(parts[1]); ok {
			return fmt.Sprintf("item %s %s", parts[0], f.Label)
		}
		return fmt.Sprintf("item %s %s", parts[0], parts[1])
	}
	return path
}
