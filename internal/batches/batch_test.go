package batches

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to processing", ItemPending, ItemProcessing, true},
		{"processing to completed", ItemProcessing, ItemCompleted, true},
		{"processing to failed", ItemProcessing, ItemFailed, true},
		{"pending skips to completed", ItemPending, ItemCompleted, false},
		{"pending skips to failed", ItemPending, ItemFailed, false},
		{"completed reverses to processing", ItemCompleted, ItemProcessing, false},
		{"failed reverses to pending", ItemFailed, ItemPending, false},
		{"completed to failed", ItemCompleted, ItemFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestBatchETA(t *testing.T) {
	tests := []struct {
		name  string
		batch Batch
		want  float64
	}{
		{
			"no completions yet",
			Batch{TotalCount: 10},
			0,
		},
		{
			"half done at two seconds each",
			Batch{TotalCount: 10, CompletedCount: 5, TotalDurationMS: 10000},
			10,
		},
		{
			"failures reduce remaining work",
			Batch{TotalCount: 10, CompletedCount: 4, FailedCount: 2, TotalDurationMS: 4000},
			4,
		},
		{
			"finished batch",
			Batch{TotalCount: 4, CompletedCount: 3, FailedCount: 1, TotalDurationMS: 6000},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.batch.ETA(); got != tt.want {
				t.Errorf("ETA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileFieldSchema(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		wantErr bool
	}{
		{
			"valid object schema",
			`{"type":"object","properties":{"expediente":{"type":"string"}},"required":["expediente"]}`,
			false,
		},
		{
			"invalid type keyword",
			`{"type":"cadena"}`,
			true,
		},
		{
			"not json",
			`{`,
			true,
		},
		{
			"empty",
			``,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileFieldSchema([]byte(tt.schema))
			if (err != nil) != tt.wantErr {
				t.Errorf("compileFieldSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
