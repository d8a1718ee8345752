package storage

import "testing"

func TestSplitTableName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantDataset string
		wantKind    string
		wantErr     bool
	}{
		{name: "edges", input: TableName("demo", TableEdges), wantDataset: "demo", wantKind: TableEdges},
		{name: "descriptions", input: "scams-2024/descriptions", wantDataset: "scams-2024", wantKind: TableDescriptions},
		{name: "no separator", input: "demo", wantErr: true},
		{name: "empty dataset", input: "/edges", wantErr: true},
		{name: "unknown kind", input: "demo/nodes", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dataset, kind, err := splitTableName(test.input)
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", test.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dataset != test.wantDataset || kind != test.wantKind {
				t.Fatalf("unexpected split: got (%q, %q), want (%q, %q)", dataset, kind, test.wantDataset, test.wantKind)
			}
		})
	}
}
