package library //nolint:testpackage // internal tests share the unexported test fixtures

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
	}{
		{"Battle for Wesnoth", "battle-for-wesnoth"},
		{"Quake", "quake"},
		{"S.T.A.L.K.E.R.: Shadow of Chernobyl", "s-t-a-l-k-e-r-shadow-of-chernobyl"},
		{"Half-Life 2", "half-life-2"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"UPPER", "upper"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
