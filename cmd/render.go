package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prerak-labs/saakshi/internal/model"
)

// Output styling. Kept minimal: results are line-oriented so they stay
// usable when piped, with color as the only decoration.
var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5c9cf5"))
	styleGood    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7fd88f"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5a742"))
	styleBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	styleSection = lipgloss.NewStyle().Bold(true)
)

// emitJSON writes v as indented JSON to stdout.
func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderEvidence(r *model.EvidenceResult, questions []string) {
	fmt.Println(styleTitle.Render("Evidence Analysis"))
	fmt.Println()
	for i, a := range r.Answers {
		mark := styleBad.Render("no ")
		if a.Yes {
			mark = styleGood.Render("yes")
		}
		q := ""
		if i < len(questions) {
			q = questions[i]
		}
		fmt.Printf("  %s  %s\n", mark, q)
		if a.Reasoning != "" {
			fmt.Printf("       %s\n", styleMuted.Render(a.Reasoning))
		}
	}
	fmt.Println()
	fmt.Printf("%s %s\n", styleSection.Render("Relevance:"), renderRelevance(r.Relevance))
	renderProvenance(r.Provenance)
}

func renderRelevance(rel model.Relevance) string {
	switch rel {
	case model.RelevanceRelevant:
		return styleGood.Render(string(rel))
	case model.RelevancePartial:
		return styleWarn.Render(string(rel))
	default:
		return styleBad.Render(string(rel))
	}
}

func renderThematic(r *model.ThematicResult) {
	fmt.Println(styleTitle.Render("Thematic Classification"))
	fmt.Println()
	for i, c := range r.Classifications {
		fmt.Printf("  %d. %s\n", i+1, c.Statement)
		fmt.Printf("     %s %s\n", styleSection.Render(fmt.Sprintf("Theme %d:", c.ThemeID)), c.ThemeName)
		if c.Reasoning != "" {
			fmt.Printf("     %s\n", styleMuted.Render(c.Reasoning))
		}
		if len(c.PII) > 0 {
			var parts []string
			for _, f := range c.PII {
				parts = append(parts, fmt.Sprintf("%s %q", f.Category, f.Match))
			}
			fmt.Printf("     %s %s\n", styleBad.Render("PII:"), strings.Join(parts, ", "))
		}
		fmt.Println()
	}
	renderProvenance(r.Provenance)
}

func renderStory(r *model.ScoreRecord, title string) {
	fmt.Println(styleTitle.Render("Story Rating"))
	fmt.Println()
	fmt.Printf("  %s %s\n", styleSection.Render("Title:"), title)
	fmt.Printf("  %s %s\n", styleSection.Render("Language:"), r.Language)
	fmt.Println()
	renderCriterion("Impact and Outcome", r.Impact)
	renderCriterion("Issue and Challenge", r.Issue)
	renderCriterion("Action Steps", r.Action)
	fmt.Printf("  %s %.2f  %s\n", styleSection.Render("Composite:"), r.Composite, renderTier(r.Tier))
	fmt.Println()
	fmt.Printf("  %s\n", styleMuted.Render(r.Summary))
	renderProvenance(r.Provenance)
}

func renderCriterion(name string, c model.Criterion) {
	fmt.Printf("  %s %.2f\n", styleSection.Render(name+":"), c.Score)
	fmt.Printf("    %s\n", styleMuted.Render(c.Justification))
}

func renderTier(t model.Tier) string {
	switch t {
	case model.TierExcellent, model.TierGood:
		return styleGood.Render(string(t))
	case model.TierDeveloping:
		return styleWarn.Render(string(t))
	default:
		return styleBad.Render(string(t))
	}
}

func renderProvenance(p model.Provenance) {
	fmt.Println()
	fmt.Println(styleMuted.Render(fmt.Sprintf("%s/%s in %dms", p.Provider, p.Model, p.DurationMs)))
}
