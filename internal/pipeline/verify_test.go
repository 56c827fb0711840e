package pipeline

import (
	"testing"

	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/match"
)

func validNif(v string) bool {
	return nifFormat.MatchString(match.Normalize(v))
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name         string
		first        string
		second       string
		validates    func(string) bool
		want         string
		wantResolved bool
	}{
		{
			"empty first adopts second",
			"", "B12345678",
			validNif,
			"B12345678", true,
		},
		{
			"empty second keeps first",
			"B12345678", "",
			validNif,
			"B12345678", true,
		},
		{
			"whitespace second keeps first",
			"B12345678", "   ",
			validNif,
			"B12345678", true,
		},
		{
			"only second validates adopts second",
			"B1234", "B12345678",
			validNif,
			"B12345678", true,
		},
		{
			"only first validates keeps first",
			"B12345678", "B1234",
			validNif,
			"B12345678", true,
		},
		{
			"both validate keeps first flagged",
			"B12345678", "C87654321",
			validNif,
			"B12345678", false,
		},
		{
			"neither validates keeps first flagged",
			"1234", "5678",
			validNif,
			"1234", false,
		},
		{
			"no validator keeps first flagged",
			"3", "4",
			nil,
			"3", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, resolved := reconcile(tt.first, tt.second, tt.validates)
			if got != tt.want || resolved != tt.wantResolved {
				t.Errorf("reconcile() = (%q, %v), want (%q, %v)", got, resolved, tt.want, tt.wantResolved)
			}
		})
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  extractions.VerificationBucket
	}{
		{"full agreement", 1, extractions.VerificationHigh},
		{"three of four", 0.75, extractions.VerificationMedium},
		{"half", 0.5, extractions.VerificationLow},
		{"none", 0, extractions.VerificationLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bucketFor(tt.ratio, 0.75); got != tt.want {
				t.Errorf("bucketFor(%v) = %v, want %v", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestFormatValidators(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  bool
	}{
		{"valid nif", "nif", "B12345678", true},
		{"nif with separators normalizes", "nif", "b-12345678", true},
		{"nif too short", "nif", "B1234567", false},
		{"nif too long", "nif", "B123456789", false},
		{"nif no letter", "nif", "123456789", false},
		{"valid expediente", "expediente", "B240012", true},
		{"expediente minimal digits", "expediente", "A24", true},
		{"expediente one digit", "expediente", "A2", false},
		{"expediente no letter", "expediente", "240012", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var re = nifFormat
			if tt.field == "expediente" {
				re = expedienteFormat
			}

			if got := re.MatchString(match.Normalize(tt.value)); got != tt.want {
				t.Errorf("%s format %q = %v, want %v", tt.field, tt.value, got, tt.want)
			}
		})
	}
}
