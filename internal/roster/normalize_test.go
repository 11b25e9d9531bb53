package roster

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jiří", "Jiri"},
		{"Dvořák", "Dvorak"},
		{"René", "Rene"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := RemoveDiacritics(tc.input); got != tc.want {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Anna-Marie", "anna marie"},
		{"JIŘÍ Svoboda", "jiri svoboda"},
		{"rené", "rene"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := NormalizeName(tc.input); got != tc.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
