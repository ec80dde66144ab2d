package model

import "testing"

func TestIsValidSubmissionStatus(t *testing.T) {
	for _, s := range []string{"new", "read", "replied", "archived"} {
		if !IsValidSubmissionStatus(s) {
			t.Errorf("IsValidSubmissionStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "bogus", "Archived", "active"} {
		if IsValidSubmissionStatus(s) {
			t.Errorf("IsValidSubmissionStatus(%q) = true, want false", s)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleEditor, true},
		{"viewer", false},
		{"", false},
		{"Admin", false},
	}
	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
