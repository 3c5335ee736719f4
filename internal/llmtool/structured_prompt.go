package llmtool

import (
	"bytes"
	"fmt"
	"strings"
)

// PromptField describes a single output field in a simple schema.
type PromptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// PromptExample captures an optional input/output example.
type PromptExample struct {
	Input  string
	Output string
}

// StructuredPromptSpec defines the sections of a system instruction that asks
// a model for a structured reply.
type StructuredPromptSpec struct {
	Purpose      string
	Background   string
	OutputFields []PromptField
	Constraints  []string
	Rules        []string
	OutputFormat string
	Examples     []PromptExample
}

// Render builds the prompt text. Empty sections are omitted.
func (spec StructuredPromptSpec) Render() (string, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return "", fmt.Errorf("llmtool: purpose is empty")
	}
	if len(spec.OutputFields) == 0 {
		return "", fmt.Errorf("llmtool: output fields are empty")
	}

	var buf bytes.Buffer
	buf.WriteString(strings.TrimSpace(spec.Purpose))
	buf.WriteString("\n\n")
	writeSection(&buf, "Background", spec.Background)
	writeSection(&buf, "Extract", formatFields(spec.OutputFields))
	writeSection(&buf, "Constraints", formatList(spec.Constraints))
	writeSection(&buf, "Rules", formatList(spec.Rules))
	writeSection(&buf, "Respond in JSON format matching this structure", spec.OutputFormat)
	if len(spec.Examples) > 0 {
		writeSection(&buf, "Examples", formatExamples(spec.Examples))
	}
	return strings.TrimSpace(buf.String()), nil
}

// MustRender is Render for package-level prompt literals.
func (spec StructuredPromptSpec) MustRender() string {
	out, err := spec.Render()
	if err != nil {
		panic(err)
	}
	return out
}

func formatFields(fields []PromptField) string {
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatExamples(examples []PromptExample) string {
	var buf strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&buf, "Example %d:\n", i+1)
		if strings.TrimSpace(ex.Input) != "" {
			buf.WriteString("Input: ")
			buf.WriteString(strings.TrimSpace(ex.Input))
			buf.WriteString("\n")
		}
		if strings.TrimSpace(ex.Output) != "" {
			buf.WriteString("Output: ")
			buf.WriteString(strings.TrimSpace(ex.Output))
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString(title)
	buf.WriteString(":\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
