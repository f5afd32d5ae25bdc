package meta

import (
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the parsed input document consumed by Generate.
//
// Field order inside Keys, Classes, Templates, and Properties mirrors
// declaration order in the source document. Generation depends on that
// order being preserved: templates observe the cumulative registry state
// left by earlier entries, and output must be byte-identical across runs.
type Config struct {
	// ConfigPath is the value emitted as the leading "!config" directive.
	ConfigPath string
	// Keys holds the free-form key/value variable table in declaration
	// order. Values may reference other keys via ${name}.
	Keys []KeyValue
	// Classes holds the static class definitions in declaration order.
	Classes []ClassDef
	// Templates holds the generation templates in declaration order.
	Templates []Template
}

// KeyValue is one entry of the key table.
type KeyValue struct {
	Name  string
	Value any
}

// Property is one name/value pair of a class or pattern property block.
type Property struct {
	Key   string
	Value any
}

// ClassDef is a static class declaration. Parent is kept loosely typed
// (nil, string, or list) and interpreted during generation, matching the
// source document's flexibility.
type ClassDef struct {
	Name       string
	Class      string
	Parent     any
	Properties []Property
}

// Template is a generation rule. Operation-specific fields (Input, Pattern,
// Parent) are kept loosely typed so that shape violations are reported by
// the executor with the template's name attached.
type Template struct {
	Name      string
	Operation string
	Class     string
	Prefix    string
	Parent    any
	Pattern   any
	Subsets   []string
	Input     any
}

// ParseConfig decodes a YAML document into a Config. Mappings are decoded
// in declaration order.
func ParseConfig(data []byte) (*Config, error) {
	var raw any

	err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap())
	if err != nil {
		return nil, ErrConfigShape.Wrap(err)
	}

	root, ok := raw.(yaml.MapSlice)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("reason", "document must be a mapping"))
	}

	var cfg Config

	for _, item := range root {
		key := Normalize(item.Key)

		switch key {
		case "config":
			cfg.ConfigPath = Normalize(item.Value)

		case "keys":
			keys, err := decodeKeys(item.Value)
			if err != nil {
				return nil, err
			}

			cfg.Keys = keys

		case "classes":
			classes, err := decodeClasses(item.Value)
			if err != nil {
				return nil, err
			}

			cfg.Classes = classes

		case "templates":
			templates, err := decodeTemplates(item.Value)
			if err != nil {
				return nil, err
			}

			cfg.Templates = templates
		}
	}

	return &cfg, nil
}

// LoadConfig reads and parses the YAML document at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(err)
	}

	return ParseConfig(data)
}

func decodeKeys(v any) ([]KeyValue, error) {
	if v == nil {
		return nil, nil
	}

	ms, ok := v.(yaml.MapSlice)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("field", "keys"),
				slog.String("reason", "must be a mapping"))
	}

	keys := make([]KeyValue, 0, len(ms))
	for _, item := range ms {
		keys = append(keys, KeyValue{
			Name:  Normalize(item.Key),
			Value: item.Value,
		})
	}

	return keys, nil
}

func decodeClasses(v any) ([]ClassDef, error) {
	if v == nil {
		return nil, nil
	}

	ms, ok := v.(yaml.MapSlice)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("field", "classes"),
				slog.String("reason", "must be a mapping"))
	}

	classes := make([]ClassDef, 0, len(ms))

	for _, item := range ms {
		name := Normalize(item.Key)

		body, ok := item.Value.(yaml.MapSlice)
		if !ok {
			return nil, ErrConfigShape.
				With(slog.String("class", name),
					slog.String("reason", "definition must be a mapping"))
		}

		def := ClassDef{Name: name}
		hasClass := false

		for _, field := range body {
			switch Normalize(field.Key) {
			case "class":
				tag, err := scalarString(field.Value, name, "class")
				if err != nil {
					return nil, err
				}

				def.Class = tag
				hasClass = true

			case "parent":
				def.Parent = field.Value

			case "properties":
				props, err := decodeProperties(field.Value, name)
				if err != nil {
					return nil, err
				}

				def.Properties = props
			}
		}

		if !hasClass {
			return nil, ErrConfigShape.
				With(slog.String("class", name),
					slog.String("reason", "missing required field 'class'"))
		}

		classes = append(classes, def)
	}

	return classes, nil
}

func decodeTemplates(v any) ([]Template, error) {
	if v == nil {
		return nil, nil
	}

	ms, ok := v.(yaml.MapSlice)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("field", "templates"),
				slog.String("reason", "must be a mapping"))
	}

	templates := make([]Template, 0, len(ms))

	for _, item := range ms {
		name := Normalize(item.Key)

		body, ok := item.Value.(yaml.MapSlice)
		if !ok {
			return nil, ErrConfigShape.
				With(slog.String("template", name),
					slog.String("reason", "definition must be a mapping"))
		}

		tmpl := Template{Name: name}

		for _, field := range body {
			switch Normalize(field.Key) {
			case "operation":
				op, err := scalarString(field.Value, name, "operation")
				if err != nil {
					return nil, err
				}

				tmpl.Operation = op

			case "class":
				tag, err := scalarString(field.Value, name, "class")
				if err != nil {
					return nil, err
				}

				tmpl.Class = tag

			case "prefix":
				tmpl.Prefix = Normalize(field.Value)

			case "parent":
				tmpl.Parent = field.Value

			case "pattern":
				tmpl.Pattern = field.Value

			case "subsets":
				subsets, err := decodeSubsets(field.Value, name)
				if err != nil {
					return nil, err
				}

				tmpl.Subsets = subsets

			case "input":
				tmpl.Input = field.Value
			}
		}

		templates = append(templates, tmpl)
	}

	return templates, nil
}

func decodeProperties(v any, owner string) ([]Property, error) {
	if v == nil {
		return nil, nil
	}

	ms, ok := v.(yaml.MapSlice)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("owner", owner),
				slog.String("field", "properties"),
				slog.String("reason", "must be a mapping"))
	}

	props := make([]Property, 0, len(ms))
	for _, item := range ms {
		props = append(props, Property{
			Key:   Normalize(item.Key),
			Value: item.Value,
		})
	}

	return props, nil
}

func decodeSubsets(v any, owner string) ([]string, error) {
	if v == nil {
		return nil, nil
	}

	list, ok := v.([]any)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("template", owner),
				slog.String("field", "subsets"),
				slog.String("reason", "must be a list"))
	}

	subsets := make([]string, 0, len(list))
	for _, entry := range list {
		subsets = append(subsets, Normalize(entry))
	}

	return subsets, nil
}

// scalarString coerces a scalar field to its textual form, rejecting
// mappings and lists.
func scalarString(v any, owner, field string) (string, error) {
	switch v.(type) {
	case yaml.MapSlice, []any:
		return "", ErrConfigShape.
			With(slog.String("owner", owner),
				slog.String("field", field),
				slog.String("reason", "must be a scalar"))
	}

	return Normalize(v), nil
}
