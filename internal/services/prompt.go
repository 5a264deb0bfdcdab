package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

const profileExtractionSystemPrompt = `You are a precise resume parser. You read the plain text of one resume and return the candidate's details as structured data.
Only use information present in the text. Never invent values. Use null for anything that is missing.`

// FormatInstructions renders the human-readable field list and the JSON
// Schema that the model output must satisfy.
func (s *ProfileSchema) FormatInstructions() string {
	var b strings.Builder

	b.WriteString("Return a single JSON object and nothing else. No markdown, no commentary.\n")
	b.WriteString("The object has these fields:\n")
	for _, f := range s.root.Fields {
		writeFieldLine(&b, f, 0)
	}

	schemaJSON, err := json.Marshal(s.document)
	if err == nil {
		b.WriteString("\nThe output must validate against this JSON Schema:\n```json\n")
		b.Write(schemaJSON)
		b.WriteString("\n```\n")
	}

	return b.String()
}

func writeFieldLine(b *strings.Builder, f SchemaField, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s- %s (%s)", indent, f.Name, describeField(f))
	if f.Description != "" {
		fmt.Fprintf(b, ": %s", f.Description)
	}
	b.WriteString("\n")

	if f.Items != nil {
		for _, child := range f.Items.Fields {
			writeFieldLine(b, child, depth+1)
		}
	}
	for _, child := range f.Fields {
		writeFieldLine(b, child, depth+1)
	}
}

func describeField(f SchemaField) string {
	kinds := make([]string, 0, len(f.Kinds))
	for _, k := range f.Kinds {
		if k == KindArray && f.Items != nil {
			kinds = append(kinds, "list of "+pluralKind(f.Items.Kinds))
			continue
		}
		kinds = append(kinds, string(k))
	}
	desc := strings.Join(kinds, " or ")

	var notes []string
	if f.Nullable {
		notes = append(notes, "or null")
	}
	if f.Required {
		notes = append(notes, "required")
	}
	if f.NonEmpty {
		notes = append(notes, "non-empty")
	}
	if f.Format != "" {
		format := "valid " + f.Format
		if f.Pattern == httpURLPattern {
			format = "http or https URL"
		}
		if f.AllowEmpty {
			format += " or empty string"
		}
		notes = append(notes, format)
	}
	if len(notes) > 0 {
		desc += ", " + strings.Join(notes, ", ")
	}
	return desc
}

func pluralKind(kinds []FieldKind) string {
	if len(kinds) == 0 {
		return "values"
	}
	switch kinds[0] {
	case KindObject:
		return "objects"
	case KindString:
		return "strings"
	default:
		return string(kinds[0]) + "s"
	}
}

// BuildProfileExtractionPrompt combines the format instructions with the
// resume text.
func BuildProfileExtractionPrompt(schema *ProfileSchema, resumeText string) string {
	return fmt.Sprintf(`Extract the candidate profile from the resume below.

%s
Resume text:
"""
%s
"""`, schema.FormatInstructions(), resumeText)
}

// CleanJSONBlock strips markdown fences and any prose around the JSON value
// in text. Objects are preferred over arrays, and a brace or bracket only
// counts when a complete JSON value starts there.
func CleanJSONBlock(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	for _, open := range []string{"{", "["} {
		if raw, ok := firstJSONValue(text, open); ok {
			return raw
		}
	}

	return strings.TrimSpace(text)
}

func firstJSONValue(text, open string) (string, bool) {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], open)
		if i == -1 {
			return "", false
		}
		start := offset + i

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&raw); err == nil {
			return string(raw), true
		}
		offset = start + 1
	}
	return "", false
}
