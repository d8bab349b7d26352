package analysis

import (
	_ "embed"
	"fmt"
	"strings"
)

// Prompt templates are loaded at compile time. The dynamic domain input is
// appended after the template by the build functions below.

//go:embed prompts/evidence.md
var evidencePrompt string

//go:embed prompts/thematic.md
var thematicPrompt string

//go:embed prompts/story.md
var storyPrompt string

// strictFormatAddendum is appended when a first reply could not be parsed
// or failed validation, for one re-prompt requesting strict compliance.
const strictFormatAddendum = `IMPORTANT: your previous reply could not be parsed. Respond with ONLY one valid JSON object exactly matching the requested shape. No explanations, no markdown, no code fences, no text before or after the JSON.`

func buildEvidencePrompt(questions []string) string {
	var b strings.Builder
	b.WriteString(evidencePrompt)
	b.WriteString("\n## Questions\n\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(q))
	}
	return b.String()
}

func buildThematicPrompt(statements []string) string {
	var b strings.Builder
	b.WriteString(thematicPrompt)
	b.WriteString("\n## Statements to Classify\n\n")
	for i, s := range statements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(s))
	}
	return b.String()
}

func buildStoryPrompt(title, content string) string {
	var b strings.Builder
	b.WriteString(storyPrompt)
	b.WriteString("\n## Story to Analyze\n\n")
	fmt.Fprintf(&b, "**Title:** %s\n\n", strings.TrimSpace(title))
	b.WriteString("**Content:**\n---\n")
	b.WriteString(content)
	b.WriteString("\n---\n")
	return b.String()
}
