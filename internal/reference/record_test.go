package reference_test

import (
	"testing"

	"github.com/hcortiz/cotejo/internal/reference"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		candidates []string
		want       string
	}{
		{
			"canonical name wins",
			map[string]string{"expediente": "F20231234", "numero_expediente": "OTHER"},
			reference.ExpedienteAliases,
			"F20231234",
		},
		{
			"falls back to alias",
			map[string]string{"numero_expediente": "F20231234"},
			reference.ExpedienteAliases,
			"F20231234",
		},
		{
			"skips empty canonical value",
			map[string]string{"expediente": "  ", "numero_expediente": "F20231234"},
			reference.ExpedienteAliases,
			"F20231234",
		},
		{
			"no candidate present",
			map[string]string{"otros": "X"},
			reference.GrupoAliases,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reference.Resolve(tt.fields, tt.candidates); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyVariants(t *testing.T) {
	t.Run("compact expediente adds spelled variant", func(t *testing.T) {
		fields := map[string]string{
			"expediente": "F20231234",
			"accion":     "1",
			"grupo":      "2",
		}

		variants := reference.KeyVariants(fields)
		if len(variants) != 2 {
			t.Fatalf("variants = %d, want 2", len(variants))
		}
		if variants[0].Expediente != "F20231234" {
			t.Errorf("variants[0].Expediente = %q", variants[0].Expediente)
		}
		if variants[1].Expediente != "F - 20231234" {
			t.Errorf("variants[1].Expediente = %q", variants[1].Expediente)
		}
		if variants[1].Accion != "1" || variants[1].Grupo != "2" {
			t.Errorf("spelled variant changed accion/grupo: %+v", variants[1])
		}
	})

	t.Run("non-compact expediente keeps single variant", func(t *testing.T) {
		fields := map[string]string{"expediente": "20231234", "accion": "1", "grupo": "1"}

		variants := reference.KeyVariants(fields)
		if len(variants) != 1 {
			t.Fatalf("variants = %d, want 1", len(variants))
		}
	})

	t.Run("aliases feed the key", func(t *testing.T) {
		fields := map[string]string{
			"numero_expediente": "B490",
			"codigo_accion":     "3",
			"numero_grupo":      "05",
		}

		variants := reference.KeyVariants(fields)
		got := variants[0]
		if got.Expediente != "B490" || got.Accion != "3" || got.Grupo != "05" {
			t.Errorf("KeyVariants[0] = %+v", got)
		}
	})
}

func TestKeyEmpty(t *testing.T) {
	if !(reference.Key{}).Empty() {
		t.Error("zero key should be empty")
	}
	if (reference.Key{Expediente: "F1"}).Empty() {
		t.Error("key with expediente should not be empty")
	}
	if !(reference.Key{Expediente: " - "}).Empty() {
		t.Error("key with only punctuation should be empty")
	}
}
