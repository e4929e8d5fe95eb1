// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestIsWindowsReservedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"CON", true},
		{"con", true},
		{"con.txt", true},
		{"COM1", true},
		{"lpt9.log", true},
		{"console", false},
		{"com10", false},
		{"tool", false},
	}

	for _, tt := range tests {
		if got := IsWindowsReservedName(tt.name); got != tt.want {
			t.Errorf("IsWindowsReservedName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsValidFileName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"mytool", true},
		{"my-tool_2", true},
		{"my.tool", true},
		{"", false},
		{"a/b", false},
		{`a\b`, false},
		{"a:b", false},
		{"a|b", false},
		{"a?b", false},
		{"a*b", false},
		{"a\x00b", false},
		{"a\tb", false},
		{"NUL", false},
	}

	for _, tt := range tests {
		if got := IsValidFileName(tt.name); got != tt.want {
			t.Errorf("IsValidFileName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
