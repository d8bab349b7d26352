package analysis

import (
	"reflect"
	"testing"

	"github.com/prerak-labs/saakshi/internal/config"
	"github.com/prerak-labs/saakshi/internal/model"
)

func TestPIIScannerBuiltins(t *testing.T) {
	s, err := NewPIIScanner(nil)
	if err != nil {
		t.Fatalf("NewPIIScanner: %v", err)
	}

	tests := []struct {
		name string
		text string
		want []model.PIIFlag
	}{
		{
			name: "email",
			text: "Contact teacher at ravi.kumar@example.org for details",
			want: []model.PIIFlag{{Category: model.PIIEmail, Match: "ravi.kumar@example.org"}},
		},
		{
			name: "phone",
			text: "Her mother can be reached at +91 98765 43210 after noon",
			want: []model.PIIFlag{{Category: model.PIIPhone, Match: "+91 98765 43210"}},
		},
		{
			name: "id number",
			text: "Aadhaar 1234 5678 9012 was missing",
			want: []model.PIIFlag{
				{Category: model.PIIPhone, Match: "1234 5678 9012"},
				{Category: model.PIIIDNumber, Match: "1234 5678 9012"},
			},
		},
		{
			name: "honorific name",
			text: "Smt Sunita Devi said the school is too far",
			want: []model.PIIFlag{{Category: model.PIIName, Match: "Smt Sunita Devi"}},
		},
		{
			name: "named pattern",
			text: "A girl named Priya dropped out after class 8",
			want: []model.PIIFlag{{Category: model.PIIName, Match: "named Priya"}},
		},
		{
			name: "clean statement",
			text: "Children miss school during harvest season",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Scan(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestPIIScannerDeterministic(t *testing.T) {
	s, err := NewPIIScanner(nil)
	if err != nil {
		t.Fatalf("NewPIIScanner: %v", err)
	}
	text := "Mr Sharma (sharma@example.com, +91 99887 76655) reported it"
	first := s.Scan(text)
	for i := 0; i < 10; i++ {
		if got := s.Scan(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("scan %d = %v, want %v", i, got, first)
		}
	}
}

func TestPIIScannerDedupesAcrossTexts(t *testing.T) {
	s, err := NewPIIScanner(nil)
	if err != nil {
		t.Fatalf("NewPIIScanner: %v", err)
	}
	got := s.Scan("write to a@b.co today", "again: a@b.co")
	if len(got) != 1 {
		t.Fatalf("flags = %v, want single email flag", got)
	}
}

func TestPIIScannerConfiguredPattern(t *testing.T) {
	s, err := NewPIIScanner([]config.PIIPattern{
		{Category: "id_number", Pattern: `\bUDISE-\d{6}\b`},
	})
	if err != nil {
		t.Fatalf("NewPIIScanner: %v", err)
	}
	got := s.Scan("school UDISE-123456 roster")
	want := []model.PIIFlag{{Category: model.PIIIDNumber, Match: "UDISE-123456"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan = %v, want %v", got, want)
	}
}

func TestPIIScannerRejectsBadPattern(t *testing.T) {
	_, err := NewPIIScanner([]config.PIIPattern{{Category: "name", Pattern: `[unclosed`}})
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
