package query

import (
	"reflect"
	"testing"
)

func TestExtractMonths(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{"iso month", "how much did I spend in 2025-12?", []string{"2025-12"}},
		{"flipped month", "summary for 12-2025 please", []string{"2025-12"}},
		{"full month name", "compare December 2025 with january 2026", []string{"2025-12", "2026-01"}},
		{"three letter name", "what happened in dec 2025", []string{"2025-12"}},
		{"sept abbreviation", "spending in sept 2024", []string{"2024-09"}},
		{"first seen order", "compare 2026-01 and 2025-12", []string{"2026-01", "2025-12"}},
		{"duplicates collapse", "2025-12 versus december 2025", []string{"2025-12"}},
		{"full date yields its month", "why was 2025-12-03 unusual", []string{"2025-12"}},
		{"no month", "what is my top category", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMonths(tt.question)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractMonths(%q) = %v, want %v", tt.question, got, tt.want)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	if got := ExtractDate("why was 2025-12-03 flagged?"); got != "2025-12-03" {
		t.Fatalf("ExtractDate() = %q, want 2025-12-03", got)
	}
	if got := ExtractDate("anything odd in 2025-12?"); got != "" {
		t.Fatalf("ExtractDate() = %q, want empty", got)
	}
}
