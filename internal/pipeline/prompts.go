package pipeline

import (
	"fmt"
	"strings"

	"sitegen/internal/llmtool"
	"sitegen/internal/types"
)

var intentSystemPrompt = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose: "You are an expert at understanding website requirements. Parse the user's request and extract the fields below.",
	OutputFields: []llmtool.PromptField{
		{Name: "intent", Type: "string", Required: true, Description: "the main intent/purpose of the website"},
		{Name: "pages", Type: "[]string", Required: true, Description: "list of pages needed (e.g., Home, About, Contact)"},
		{Name: "features", Type: "[]string", Required: true, Description: "key features required"},
		{Name: "style", Type: "string", Required: true, Description: "design style preference (minimal, modern, corporate, creative)"},
		{Name: "components", Type: "[]string", Required: true, Description: "main components needed"},
	},
	OutputFormat: `{
  "intent": "string describing the purpose",
  "pages": ["Home", "About", ...],
  "features": ["contact form", "blog", ...],
  "style": "modern",
  "components": ["header", "footer", ...]
}`,
}, llmtool.PresetStrictJSON(), llmtool.PresetVerbatimLists()).MustRender()

func codeSystemPrompt(style string) string {
	return `You are an expert React/Next.js developer. Generate a complete, production-ready Next.js page component based on the provided context.

Requirements:
- Use Next.js 14+ App Router syntax
- Use TypeScript
- Use Tailwind CSS for styling
- Follow the ` + style + ` design style
- Include proper SEO meta tags
- Make it responsive
- Use modern React patterns (hooks, functional components)
- Include accessibility features
- Add smooth animations where appropriate

Generate ONLY the page component code, nothing else. Start with "export default function" and make it a complete, working component.`
}

func codeUserPrompt(gc types.GenerationContext) string {
	return fmt.Sprintf(`Create a %s website with the following specifications:

Pages: %s
Features: %s
Style: %s
Components: %s

Generate the main page component with all these elements integrated.`,
		gc.Intent,
		strings.Join(gc.Pages, ", "),
		strings.Join(gc.Features, ", "),
		gc.Style,
		strings.Join(gc.Components, ", "),
	)
}

const repairSystemPrompt = "You are a code fixing expert. Fix the provided code to resolve all errors. Return ONLY the fixed code, no explanations."

func repairUserPrompt(code types.CodeArtifact, errs []string) string {
	return "Fix these errors in the code:\n\n" + strings.Join(errs, "\n") + "\n\nCode:\n" + string(code)
}

func componentSystemPrompt(style string) string {
	return "You are an expert React component developer. Generate a reusable React component with TypeScript and Tailwind CSS. Follow " +
		style + " design style. Return ONLY the component code."
}

func componentUserPrompt(name, description string) string {
	return fmt.Sprintf("Create a %s component: %s", name, description)
}

const refineSystemPrompt = "You are a code refinement expert. Modify the code based on user feedback while maintaining its structure and functionality. Return ONLY the modified code."

func refineUserPrompt(code, feedback string) string {
	return "Current code:\n" + code + "\n\nFeedback: " + feedback + "\n\nProvide the refined code."
}
