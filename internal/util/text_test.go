package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "clean", in: "DOC-1", want: "DOC-1"},
		{name: "nul byte", in: "Ali\x00ce", want: "Alice"},
		{name: "invalid utf8", in: "Bob\xff", want: "Bob"},
		{name: "unicode kept", in: "Müller", want: "Müller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePostgresText(tt.in); got != tt.want {
				t.Fatalf("SanitizePostgresText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizePostgresRow(t *testing.T) {
	got := SanitizePostgresRow("demo", "A\x00", "B")
	want := []any{"demo", "A", "B"}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}
