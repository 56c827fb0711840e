package pipeline

import (
	"testing"

	"github.com/hcortiz/cotejo/internal/extractions"
)

func TestAggregateConfidence(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		succeeded int
		want      float64
	}{
		{"no regions", 0, 0, 0},
		{"all succeed", 10, 10, 1},
		{"all fail", 10, 0, 0},
		{"18 of 20", 20, 18, 0.9},
		{"1 of 3", 3, 1, 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]extractions.RegionResult, tt.total)
			for i := range results {
				results[i].Success = i < tt.succeeded
			}

			if got := aggregateConfidence(results); got != tt.want {
				t.Errorf("aggregateConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectFields(t *testing.T) {
	results := []extractions.RegionResult{
		{Label: "expediente", Value: "B240012", Success: true},
		{Label: "nif", Value: "", Success: false, Error: "crop failed"},
		{Label: "importe_total", Value: "1.250,00", Success: true},
	}

	fields := collectFields(results)

	if len(fields) != 2 {
		t.Fatalf("collectFields() returned %d fields, want 2", len(fields))
	}
	if fields["expediente"] != "B240012" {
		t.Errorf("expediente = %q, want B240012", fields["expediente"])
	}
	if _, ok := fields["nif"]; ok {
		t.Error("failed region should not contribute a field")
	}
}
