package testutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a\nb\n", "a\nb\n"},
		{"color", "\x1b[1;36massistant\x1b[0m\n", "assistant\n"},
		{"padding", "  Some text.   \n\t\n", "  Some text.\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
