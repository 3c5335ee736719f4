package types

import (
	"bytes"
	"encoding/json"
)

// Style values accepted on a GenerationRequest.
const (
	StyleMinimal   = "minimal"
	StyleModern    = "modern"
	StyleCorporate = "corporate"
	StyleCreative  = "creative"

	DefaultStyle = StyleModern
)

// Styles lists the accepted style values in display order.
var Styles = []string{StyleMinimal, StyleModern, StyleCorporate, StyleCreative}

// GenerationRequest is the caller-owned input to one pipeline run.
type GenerationRequest struct {
	Prompt    string   `json:"prompt"`
	Template  string   `json:"template,omitempty"`
	Style     string   `json:"style,omitempty"`
	Pages     []string `json:"pages,omitempty"`
	Features  []string `json:"features,omitempty"`
	ProjectID string   `json:"projectId,omitempty"`
}

// StyleOrDefault returns the requested style, or DefaultStyle when unset.
func (r GenerationRequest) StyleOrDefault() string {
	if r.Style == "" {
		return DefaultStyle
	}
	return r.Style
}

// GenerationContext is the structured intent extracted from a prompt.
// List entries are kept as the model returned them: neither deduplicated
// nor ordered by importance.
type GenerationContext struct {
	Intent     string   `json:"intent"`
	Pages      []string `json:"pages"`
	Features   []string `json:"features"`
	Style      string   `json:"style"`
	Components []string `json:"components"`
}

// CodeArtifact is an opaque generated page or component body.
type CodeArtifact string

// Severity of an error finding.
const (
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Warning categories.
const (
	CategorySecurity = "security"
	CategoryStyle    = "style"
)

// FindingKind tags a Finding as an error or a warning.
type FindingKind string

const (
	FindingError   FindingKind = "error"
	FindingWarning FindingKind = "warning"
)

// Finding is a single validator-produced error or warning. Errors carry a
// Severity; warnings carry a Category.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Rule     string      `json:"rule,omitempty"`
	Message  string      `json:"message"`
	Severity string      `json:"severity,omitempty"`
	Category string      `json:"type,omitempty"`
	Line     int         `json:"line,omitempty"`
}

// ValidationResult is produced once per artifact. Valid is true exactly when
// Errors is empty; warnings never affect validity.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// ErrorMessages returns the messages of all error findings.
func (v ValidationResult) ErrorMessages() []string {
	out := make([]string, 0, len(v.Errors))
	for _, f := range v.Errors {
		out = append(out, f.Message)
	}
	return out
}

// GeneratedPage is one routable page of the response.
type GeneratedPage struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	Code           string `json:"code"`
	SEOTitle       string `json:"seoTitle,omitempty"`
	SEODescription string `json:"seoDescription,omitempty"`
}

// GeneratedComponent is a reusable component of the response.
type GeneratedComponent struct {
	Name  string         `json:"name"`
	Type  string         `json:"type"`
	Code  string         `json:"code"`
	Props map[string]any `json:"props,omitempty"`
}

// Repair outcomes reported in Diagnostics.
const (
	RepairNotNeeded = "not_needed"
	RepairRepaired  = "repaired"
	RepairFailed    = "failed"
)

// Diagnostics exposes the validation findings and repair outcome of a
// successful run. Valid, Errors and Warnings describe the synthesized
// artifact before repair; the repaired code is not validated again. When
// Repair is RepairFailed the returned code is the unrepaired artifact and
// may still violate the findings in Errors.
type Diagnostics struct {
	Valid       bool      `json:"valid"`
	Errors      []Finding `json:"errors"`
	Warnings    []Finding `json:"warnings"`
	Repair      string    `json:"repair"`
	RepairError string    `json:"repairError,omitempty"`
}

// GenerationResponse is the terminal output of one pipeline run.
type GenerationResponse struct {
	Success     bool                 `json:"success"`
	RunID       string               `json:"runId,omitempty"`
	ProjectID   string               `json:"projectId,omitempty"`
	Pages       []GeneratedPage      `json:"pages,omitempty"`
	Components  []GeneratedComponent `json:"components,omitempty"`
	Diagnostics *Diagnostics         `json:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// MarshalJSON always emits "components" on success, as an empty list when
// no components were generated.
func (r GenerationResponse) MarshalJSON() ([]byte, error) {
	type alias GenerationResponse
	out := struct {
		alias
		Components *[]GeneratedComponent `json:"components,omitempty"`
	}{alias: alias(r)}
	if r.Success {
		c := r.Components
		if c == nil {
			c = []GeneratedComponent{}
		}
		out.Components = &c
	}
	// Escaping is left to the outer encoder so MarshalNoEscape keeps markup intact.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
