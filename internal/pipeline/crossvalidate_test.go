package pipeline

import (
	"testing"

	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/reference"
)

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  extractions.Severity
	}{
		{"expediente is critical", "expediente", extractions.SeverityCritical},
		{"expediente alias is critical", "numero_expediente", extractions.SeverityCritical},
		{"accion is critical", "accion", extractions.SeverityCritical},
		{"grupo alias is critical", "codigo_grupo", extractions.SeverityCritical},
		{"nif is critical", "nif", extractions.SeverityCritical},
		{"amount is critical", "importe_total", extractions.SeverityCritical},
		{"cost is critical", "coste_hora", extractions.SeverityCritical},
		{"denomination is a warning", "denominacion", extractions.SeverityWarning},
		{"modality is a warning", "modalidad", extractions.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := severityFor(tt.field); got != tt.want {
				t.Errorf("severityFor(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestCompareFields(t *testing.T) {
	extracted := map[string]string{
		"expediente":    "B240012",
		"accion":        "7",
		"grupo":         "1",
		"nif":           "B12345678",
		"denominacion":  "FORMACION EN OFIMATICA",
		"modalidad":     "Presencial",
		"importe_total": "1.250,00",
		"horas":         "40",
		"centro":        "MADRID",
		"telefono":      "910000000",
		"no_en_ledger":  "ignored",
	}

	ledger := map[string]string{
		"expediente":    "B240012",
		"accion":        "007",
		"grupo":         "1",
		"nif":           "B12345678",
		"denominacion":  "FORMACION EN OFIMATICA",
		"modalidad":     "PRESENCIAL",
		"importe_total": "1.250,00",
		"horas":         "40",
		"centro":        "BARCELONA",
		"telefono":      "911111111",
	}

	es := &ExtractionState{Record: extractions.Record{Fields: extracted}}
	rec := &reference.Record{Fields: ledger}

	compared, matched := compareFields(es, rec)

	if compared != 10 {
		t.Fatalf("compared = %d, want 10", compared)
	}
	if matched != 8 {
		t.Fatalf("matched = %d, want 8", matched)
	}

	pct := float64(matched) / float64(compared) * 100
	if pct != 80 {
		t.Errorf("match percentage = %v, want 80", pct)
	}

	if len(es.Record.Discrepancies) != 2 {
		t.Fatalf("discrepancies = %d, want 2", len(es.Record.Discrepancies))
	}
	for _, d := range es.Record.Discrepancies {
		if d.Field != "centro" && d.Field != "telefono" {
			t.Errorf("unexpected discrepancy on field %q", d.Field)
		}
		if d.Severity != extractions.SeverityWarning {
			t.Errorf("discrepancy on %q has severity %v, want warning", d.Field, d.Severity)
		}
	}
}

func TestCompareFieldsCriticalDiscrepancy(t *testing.T) {
	es := &ExtractionState{Record: extractions.Record{Fields: map[string]string{
		"nif":           "B12345678",
		"grupo":         "1",
		"centro":        "MADRID",
	}}}
	rec := &reference.Record{Fields: map[string]string{
		"nif":           "C87654321",
		"grupo":         "001",
		"centro":        "MADRID",
	}}

	compared, matched := compareFields(es, rec)

	if compared != 3 || matched != 2 {
		t.Fatalf("compareFields() = (%d, %d), want (3, 2)", compared, matched)
	}
	if es.Record.CriticalSeverityCount() != 1 {
		t.Errorf("critical count = %d, want 1", es.Record.CriticalSeverityCount())
	}
	if es.Record.WarningSeverityCount() != 0 {
		t.Errorf("warning count = %d, want 0", es.Record.WarningSeverityCount())
	}
}
