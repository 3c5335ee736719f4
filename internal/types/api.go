package types

// ComponentRequest asks for a single reusable component.
type ComponentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Style       string `json:"style,omitempty"`
}

// RefineRequest asks for code to be rewritten according to feedback.
type RefineRequest struct {
	Code     string `json:"code"`
	Feedback string `json:"feedback"`
}

// CodeRequest carries code for local validation.
type CodeRequest struct {
	Code string `json:"code"`
}

// CodeResponse carries generated or refined code.
type CodeResponse struct {
	Code string `json:"code"`
}
