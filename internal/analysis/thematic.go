package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prerak-labs/saakshi/internal/extract"
	"github.com/prerak-labs/saakshi/internal/model"
	"github.com/prerak-labs/saakshi/internal/provider"
)

var thematicSchema = extract.Schema{
	Name: "thematic",
	Fields: []extract.Field{
		{Name: "classified_data", Type: extract.TypeObjectList, Required: true},
	},
}

// AnalyzeThematic classifies each challenge statement into one of the
// fixed themes and scans statements and reasonings for personally
// identifying information. Classifications preserve statement order.
func (a *Analyzer) AnalyzeThematic(ctx context.Context, statements []string) (*model.ThematicResult, error) {
	started := time.Now()

	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: no statements given", ErrAnalysisFailed)
	}

	req := provider.Request{Prompt: buildThematicPrompt(statements)}
	check := func(res extract.Result) error {
		return checkThematic(res, len(statements))
	}
	res, resp, err := a.complete(ctx, req, thematicSchema, check)
	if err != nil {
		return nil, err
	}

	entries := res.ObjectList("classified_data")
	if len(entries) > len(statements) {
		// Keep the first entry per statement; anything past that has no
		// statement to attach to.
		zap.L().Warn("classification overflow truncated",
			zap.Int("statements", len(statements)),
			zap.Int("entries", len(entries)),
		)
		entries = entries[:len(statements)]
	}

	classifications := make([]model.Classification, len(entries))
	for i, entry := range entries {
		id := int(asNumber(entry["theme_id"]))
		theme, _ := themeByID(id)
		reasoning, _ := entry["reasoning"].(string)
		classifications[i] = model.Classification{
			Statement: statements[i],
			ThemeID:   theme.ID,
			ThemeName: theme.Name,
			Reasoning: reasoning,
			PII:       a.pii.Scan(statements[i], reasoning),
		}
	}

	return &model.ThematicResult{
		Classifications: classifications,
		Provenance:      provenance(resp, started),
	}, nil
}

// checkThematic verifies every statement got a classification with a
// theme ID inside the taxonomy. Overflow is tolerated here and truncated
// by the caller; a shortfall means statements went unclassified.
func checkThematic(res extract.Result, statements int) error {
	entries := res.ObjectList("classified_data")
	if len(entries) < statements {
		return fmt.Errorf("%d classifications for %d statements", len(entries), statements)
	}
	for i, entry := range entries {
		id := asNumber(entry["theme_id"])
		if id != float64(int(id)) {
			return fmt.Errorf("entry %d: theme_id %v is not an integer", i+1, entry["theme_id"])
		}
		if _, ok := themeByID(int(id)); !ok {
			return fmt.Errorf("entry %d: theme_id %d outside taxonomy", i+1, int(id))
		}
	}
	return nil
}

// asNumber reads a JSON number out of a raw object field.
func asNumber(v any) float64 {
	f, _ := v.(float64)
	return f
}
