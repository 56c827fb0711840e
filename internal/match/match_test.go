package match_test

import (
	"testing"

	"github.com/hcortiz/cotejo/internal/match"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"lowercase", "b1234", "B1234"},
		{"inner whitespace", " F 2023 1234 ", "F20231234"},
		{"punctuation stripped", "B-49.005.001/1", "B490050011"},
		{"accents stripped", "Acción Nº 7", "ACCINN7"},
		{"already canonical", "F20231234", "F20231234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := match.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "  b-12 34 ", "F20231234", "Nº 05", "x9!@#"}
	for _, in := range inputs {
		once := match.Normalize(in)
		if twice := match.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestValuesMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"both empty", "", "", true},
		{"both normalize to empty", " - ", "...", true},
		{"one empty", "", "A", false},
		{"one normalizes to empty", "A", " - ", false},
		{"exact", "F20231234", "F20231234", true},
		{"exact after normalization", "f 2023-1234", "F20231234", true},
		{"leading zeros", "007", "7", true},
		{"leading zeros both sides", "05", "0005", true},
		{"substring prefix", "A240012", "240012", true},
		{"substring truncation", "B49005001", "B4900500", true},
		{"self match", "X123", "X123", true},
		{"different values", "F20231234", "F20231235", false},
		{"disjoint", "ABC", "XYZ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := match.ValuesMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("ValuesMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := match.ValuesMatch(tt.b, tt.a); got != tt.want {
				t.Errorf("ValuesMatch(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
