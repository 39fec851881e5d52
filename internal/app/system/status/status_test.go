package status

import "testing"

func TestIsValid(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{Active, true},
		{Disabled, true},
		{"ACTIVE", false},
		{"locked", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsValid(tt.status); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	if got := Default(); got != Active {
		t.Errorf("Default() = %q, want %q", got, Active)
	}
}

func TestFromActive(t *testing.T) {
	if got := FromActive(true); got != Active {
		t.Errorf("FromActive(true) = %q, want %q", got, Active)
	}
	if got := FromActive(false); got != Disabled {
		t.Errorf("FromActive(false) = %q, want %q", got, Disabled)
	}
}
