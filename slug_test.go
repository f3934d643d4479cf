package invlocale

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Solar Farm", "solar-farm"},
		{"[HR] Solar Farm", "hr-solar-farm"},
		{"  Wind   Park  ", "wind-park"},
		{"Hotel -- Resort", "hotel-resort"},
		{"Vinarija Šibenik", "vinarija-ibenik"},
		{"100% Green!", "100-green"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
