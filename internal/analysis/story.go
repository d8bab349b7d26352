package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/prerak-labs/saakshi/internal/extract"
	"github.com/prerak-labs/saakshi/internal/model"
	"github.com/prerak-labs/saakshi/internal/provider"
)

var storySchema = extract.Schema{
	Name: "story",
	Fields: []extract.Field{
		{Name: "document_language", Type: extract.TypeString, Required: true},
		{Name: "impact_and_outcome_score", Type: extract.TypeNumber, Required: true},
		{Name: "impact_justification", Type: extract.TypeString, Required: true},
		{Name: "issue_and_challenge_score", Type: extract.TypeNumber, Required: true},
		{Name: "issue_justification", Type: extract.TypeString, Required: true},
		{Name: "action_steps_score", Type: extract.TypeNumber, Required: true},
		{Name: "action_justification", Type: extract.TypeString, Required: true},
		{Name: "overall_summary", Type: extract.TypeString, Required: true},
	},
}

// storyScoreFields are the criteria whose values must land in [0, 1].
var storyScoreFields = []string{
	"impact_and_outcome_score",
	"issue_and_challenge_score",
	"action_steps_score",
}

// AnalyzeStory fetches the PDF at pdfURL, extracts its text, and rates
// the story against the three criteria. The composite score and tier are
// computed locally from the criterion scores.
func (a *Analyzer) AnalyzeStory(ctx context.Context, title, pdfURL string) (*model.ScoreRecord, error) {
	started := time.Now()

	content, err := a.docs.ExtractText(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	req := provider.Request{Prompt: buildStoryPrompt(title, content)}
	res, resp, err := a.complete(ctx, req, storySchema, checkStory)
	if err != nil {
		return nil, err
	}

	impact := res.Number("impact_and_outcome_score")
	issue := res.Number("issue_and_challenge_score")
	action := res.Number("action_steps_score")

	return &model.ScoreRecord{
		Language:   res.String("document_language"),
		Impact:     model.Criterion{Score: impact, Justification: res.String("impact_justification")},
		Issue:      model.Criterion{Score: issue, Justification: res.String("issue_justification")},
		Action:     model.Criterion{Score: action, Justification: res.String("action_justification")},
		Composite:  model.ComputeComposite(impact, issue, action),
		Tier:       model.TierFor(impact, issue, action),
		Summary:    res.String("overall_summary"),
		Provenance: provenance(resp, started),
	}, nil
}

// checkStory rejects criterion scores outside [0, 1]; a score out of
// range means the model ignored the rubric.
func checkStory(res extract.Result) error {
	for _, name := range storyScoreFields {
		if s := res.Number(name); s < 0 || s > 1 {
			return fmt.Errorf("%s is %v, want a value in [0, 1]", name, s)
		}
	}
	return nil
}
