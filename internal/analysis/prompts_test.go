package analysis

import (
	"strings"
	"testing"
)

func TestBuildEvidencePromptNumbersQuestions(t *testing.T) {
	p := buildEvidencePrompt([]string{"Are charts visible?", "  Is the room clean?  "})
	if !strings.Contains(p, "1. Are charts visible?") {
		t.Error("first question not numbered")
	}
	if !strings.Contains(p, "2. Is the room clean?") {
		t.Error("second question not trimmed and numbered")
	}
	if !strings.Contains(p, `"answers"`) {
		t.Error("template missing answer shape")
	}
}

func TestBuildThematicPromptListsAllThemes(t *testing.T) {
	p := buildThematicPrompt([]string{"s"})
	for _, theme := range Themes() {
		if !strings.Contains(p, theme.Name) {
			t.Errorf("template missing theme %q", theme.Name)
		}
	}
}

func TestBuildStoryPromptEmbedsContentVerbatim(t *testing.T) {
	content := "Line one.\nLine two with   spacing."
	p := buildStoryPrompt("A Title", content)
	if !strings.Contains(p, content) {
		t.Error("content altered or missing")
	}
	if !strings.Contains(p, "A Title") {
		t.Error("title missing")
	}
}

func TestStrictAddendumDemandsBareJSON(t *testing.T) {
	if !strings.Contains(strictFormatAddendum, "JSON") {
		t.Error("addendum does not mention JSON")
	}
}
