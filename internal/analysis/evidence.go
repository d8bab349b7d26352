package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prerak-labs/saakshi/internal/extract"
	"github.com/prerak-labs/saakshi/internal/model"
	"github.com/prerak-labs/saakshi/internal/provider"
)

const maxEvidenceQuestions = 7

var evidenceSchema = extract.Schema{
	Name: "evidence",
	Fields: []extract.Field{
		{Name: "answers", Type: extract.TypeStringList, Required: true},
		{Name: "reasonings", Type: extract.TypeStringList, Required: true},
	},
}

// AnalyzeEvidence fetches the evidence image at imageURL and answers the
// given questions about it. Between 1 and 7 questions are accepted; the
// returned answers preserve question order.
func (a *Analyzer) AnalyzeEvidence(ctx context.Context, imageURL string, questions []string) (*model.EvidenceResult, error) {
	started := time.Now()

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions given", ErrAnalysisFailed)
	}
	if len(questions) > maxEvidenceQuestions {
		return nil, fmt.Errorf("%w: %d questions given, at most %d allowed",
			ErrAnalysisFailed, len(questions), maxEvidenceQuestions)
	}

	image, mime, err := a.docs.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	req := provider.Request{
		Prompt:         buildEvidencePrompt(questions),
		Attachment:     image,
		AttachmentMIME: mime,
	}
	check := func(res extract.Result) error {
		return checkEvidence(res, len(questions))
	}
	res, resp, err := a.complete(ctx, req, evidenceSchema, check)
	if err != nil {
		return nil, err
	}

	rawAnswers := res.StringList("answers")
	reasonings := res.StringList("reasonings")
	answers := make([]model.Answer, len(rawAnswers))
	for i, raw := range rawAnswers {
		answers[i] = model.Answer{Yes: isYes(raw)}
		if i < len(reasonings) {
			answers[i].Reasoning = reasonings[i]
		}
	}

	return &model.EvidenceResult{
		Answers:    answers,
		Relevance:  model.RelevanceFor(answers),
		Provenance: provenance(resp, started),
	}, nil
}

// checkEvidence verifies the model answered every question, once, with a
// recognizable yes/no.
func checkEvidence(res extract.Result, questions int) error {
	answers := res.StringList("answers")
	if len(answers) != questions {
		return fmt.Errorf("%d answers for %d questions", len(answers), questions)
	}
	for i, raw := range answers {
		if !isYes(raw) && !isNo(raw) {
			return fmt.Errorf("answer %d is %q, want yes or no", i+1, raw)
		}
	}
	if got := len(res.StringList("reasonings")); got != questions {
		return fmt.Errorf("%d reasonings for %d questions", got, questions)
	}
	return nil
}

func isYes(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "yes")
}

func isNo(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "no")
}
