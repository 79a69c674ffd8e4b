// Package schema generates JSON Schema for tool inputs from Go structs and
// decodes call arguments back into them. Schemas are advertised verbatim;
// arguments are never validated against them.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// PropertyDetail represents a JSON Schema property definition.
type PropertyDetail struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Items       interface{} `json:"items,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
}

// InputSchema represents a JSON Schema for tool input.
type InputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertyDetail `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// FromStruct builds an object schema from a struct's exported fields. Field
// names come from the json tag (falling back to the camelCased Go name);
// fields that are neither marked omitempty nor of pointer type are required.
// Descriptions come from a
// `description` tag.
func FromStruct(v interface{}) InputSchema {
	out := InputSchema{Type: "object", Properties: map[string]PropertyDetail{}}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, optional, skip := fieldName(field)
		if skip {
			continue
		}
		out.Properties[name] = PropertyDetail{
			Type:        jsonType(field.Type),
			Description: field.Tag.Get("description"),
			Items:       itemsOf(field.Type),
		}
		if !optional {
			out.Required = append(out.Required, name)
		}
	}
	return out
}

// DecodeArguments decodes a tools/call arguments map into the struct pointed
// to by target, matching fields the same way FromStruct names them.
func DecodeArguments(arguments map[string]interface{}, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build arguments decoder: %w", err)
	}
	if err := dec.Decode(arguments); err != nil {
		return fmt.Errorf("failed to decode arguments into %T: %w", target, err)
	}
	return nil
}

func fieldName(field reflect.StructField) (name string, optional, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = protocol.WireName(strings.ToLower(field.Name[:1]) + field.Name[1:])
	}
	for _, p := range parts[1:] {
		if p == "omitempty" {
			optional = true
		}
	}
	if field.Type.Kind() == reflect.Ptr {
		optional = true
	}
	return name, optional, false
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func itemsOf(t reflect.Type) interface{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return nil
	}
	return map[string]string{"type": jsonType(t.Elem())}
}
