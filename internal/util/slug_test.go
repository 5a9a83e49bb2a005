package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Monstera Deliciosa", "monstera-deliciosa"},
		{"  Fiddle-Leaf Fig  ", "fiddle-leaf-fig"},
		{"Pothos (Golden)", "pothos-golden"},
		{"50% Off!", "50-off"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
