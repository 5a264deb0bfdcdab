package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"alfredoptarigan/resume-ingestor/internal/models"
)

type FieldKind string

const (
	KindString  FieldKind = "string"
	KindBoolean FieldKind = "boolean"
	KindArray   FieldKind = "array"
	KindObject  FieldKind = "object"
)

// SchemaField describes one field of the extraction target. The same tree
// renders the prompt instructions and compiles into the JSON Schema used to
// validate model output.
type SchemaField struct {
	Name        string
	Description string
	Kinds       []FieldKind
	Required    bool
	Nullable    bool
	NonEmpty    bool
	// Format is a JSON Schema format name ("email", "uri").
	Format string
	// Pattern is a regular expression string values must match. NonEmpty
	// fields default to requiring one non-space character.
	Pattern string
	// AllowEmpty accepts "" in addition to values matching Format.
	AllowEmpty bool
	// DefaultEmpty fills a missing array with [] before validation.
	DefaultEmpty bool
	// Strict rejects properties that are not declared in Fields.
	Strict bool
	Items  *SchemaField
	Fields []SchemaField
}

const (
	nonBlankPattern = `\S`
	httpURLPattern  = `^(?i)https?://`
)

func optionalString(name, description string) SchemaField {
	return SchemaField{Name: name, Description: description, Kinds: []FieldKind{KindString}, Nullable: true}
}

func optionalList(name, description string, items SchemaField) SchemaField {
	return SchemaField{Name: name, Description: description, Kinds: []FieldKind{KindArray}, Nullable: true, Items: &items}
}

func objectOf(fields ...SchemaField) SchemaField {
	return SchemaField{Kinds: []FieldKind{KindObject}, Fields: fields}
}

// profileFields is the single definition of the candidate profile.
func profileFields() SchemaField {
	root := objectOf(
		SchemaField{
			Name:        "name",
			Description: "Full name of the candidate",
			Kinds:       []FieldKind{KindString},
			Required:    true,
			NonEmpty:    true,
		},
		SchemaField{
			Name:        "email",
			Description: "Primary email address of the candidate",
			Kinds:       []FieldKind{KindString},
			Required:    true,
			Format:      "email",
		},
		optionalString("phone", "Phone number including country code when present"),
		optionalString("current_job_title", "Most recent job title"),
		optionalString("current_company", "Most recent employer"),
		optionalString("summary", "Short professional summary in the candidate's own words"),
		optionalString("portfolio_url", "Personal website, portfolio or profile link"),
		optionalList("experience", "Work history, most recent first", objectOf(
			optionalString("title", "Job title"),
			optionalString("company", "Employer name"),
			optionalString("location", "City, country or remote"),
			optionalString("startDate", "Start date as written on the resume"),
			optionalString("endDate", "End date as written, or \"Present\""),
			optionalString("description", "Responsibilities and achievements"),
		)),
		optionalList("education", "Degrees and programs", objectOf(
			optionalString("institute_name", "School or university"),
			optionalString("degree", "Degree or certificate"),
			optionalString("field_of_study", "Major or discipline"),
			optionalString("start_date", "Start date as written"),
			optionalString("end_date", "End date as written"),
			optionalString("location", "City or country"),
			SchemaField{
				Name:        "is_ongoing",
				Description: "true when still enrolled; a short string is accepted",
				Kinds:       []FieldKind{KindBoolean, KindString},
				Nullable:    true,
			},
		)),
		SchemaField{
			Name:         "skills",
			Description:  "Technical and professional skills, one per entry",
			Kinds:        []FieldKind{KindArray},
			Nullable:     true,
			DefaultEmpty: true,
			Items:        &SchemaField{Kinds: []FieldKind{KindString}},
		},
		optionalList("projects", "Notable projects", objectOf(
			optionalString("name", "Project name"),
			optionalString("description", "What the project does"),
			optionalList("techStack", "Technologies used", SchemaField{Kinds: []FieldKind{KindString}}),
			SchemaField{
				Name:        "link",
				Description: "Project http(s) URL, or an empty string when there is none",
				Kinds:       []FieldKind{KindString},
				Nullable:    true,
				Format:      "uri",
				Pattern:     httpURLPattern,
				AllowEmpty:  true,
			},
		)),
	)
	root.Strict = true
	return root
}

// ProfileSchema validates and documents the candidate profile format.
type ProfileSchema struct {
	root     SchemaField
	document map[string]any
	compiled *jsonschema.Schema
}

func NewProfileSchema() (*ProfileSchema, error) {
	root := profileFields()
	document := root.JSONSchema()

	b, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource("profile.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to add profile schema: %w", err)
	}

	compiled, err := compiler.Compile("profile.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile profile schema: %w", err)
	}

	return &ProfileSchema{root: root, document: document, compiled: compiled}, nil
}

// Fields returns the top-level field definitions.
func (s *ProfileSchema) Fields() []SchemaField {
	return s.root.Fields
}

// JSONSchema returns the JSON Schema document derived from the field tree.
func (s *ProfileSchema) JSONSchema() map[string]any {
	return s.document
}

// JSONSchema renders the field as a JSON Schema fragment.
func (f SchemaField) JSONSchema() map[string]any {
	out := map[string]any{}

	types := make([]any, 0, len(f.Kinds)+1)
	for _, k := range f.Kinds {
		types = append(types, string(k))
	}
	if f.Nullable {
		types = append(types, "null")
	}
	if len(types) == 1 {
		out["type"] = types[0]
	} else {
		out["type"] = types
	}

	if f.Description != "" {
		out["description"] = f.Description
	}
	pattern := f.Pattern
	if f.NonEmpty {
		out["minLength"] = 1
		if pattern == "" {
			pattern = nonBlankPattern
		}
	}

	switch {
	case f.AllowEmpty && (f.Format != "" || pattern != ""):
		valued := map[string]any{}
		if f.Format != "" {
			valued["format"] = f.Format
		}
		if pattern != "" {
			valued["pattern"] = pattern
		}
		out["anyOf"] = []any{valued, map[string]any{"maxLength": 0}}
	default:
		if f.Format != "" {
			out["format"] = f.Format
		}
		if pattern != "" {
			out["pattern"] = pattern
		}
	}

	if f.Items != nil {
		out["items"] = f.Items.JSONSchema()
	}

	if len(f.Fields) > 0 {
		props := make(map[string]any, len(f.Fields))
		required := []any{}
		for _, child := range f.Fields {
			props[child.Name] = child.JSONSchema()
			if child.Required {
				required = append(required, child.Name)
			}
		}
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
		if f.Strict {
			out["additionalProperties"] = false
		}
	}

	return out
}

// Decode parses raw model output, applies defaults and validates it.
// The result is either a fully valid profile or a *ValidationError.
func (s *ProfileSchema) Decode(raw []byte) (*models.Profile, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Message: "response is not valid JSON", Cause: err}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Message: "response is not a JSON object"}
	}

	for _, f := range s.root.Fields {
		if _, present := obj[f.Name]; !present && f.DefaultEmpty {
			obj[f.Name] = []any{}
		}
	}

	if err := s.compiled.Validate(obj); err != nil {
		return nil, schemaViolation(err)
	}

	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, &ValidationError{Message: "failed to re-encode profile", Cause: err}
	}

	var profile models.Profile
	if err := json.Unmarshal(normalized, &profile); err != nil {
		return nil, &ValidationError{Message: "profile does not fit the profile model", Cause: err}
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}

	return &profile, nil
}

func schemaViolation(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: "profile validation failed", Cause: err}
	}

	seen := map[string]bool{}
	var fields, details []string
	for _, leaf := range leafViolations(ve) {
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if field == "" {
			field = "(root)"
		}
		details = append(details, fmt.Sprintf("%s: %s", field, leaf.Message))
		if !seen[field] {
			seen[field] = true
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	return &ValidationError{
		Message: "profile does not match schema: " + strings.Join(details, "; "),
		Fields:  fields,
		Cause:   err,
	}
}

func leafViolations(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		leaves = append(leaves, leafViolations(cause)...)
	}
	return leaves
}
