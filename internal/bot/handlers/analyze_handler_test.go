package handlers

import "testing"

func TestIsChatLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"https://t.me/mygroup", true},
		{"@mygroup", true},
		{"http://example.com", false},
		{"t.me/mygroup", false},
		{"just some text", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := isChatLink(tc.input); got != tc.want {
			t.Errorf("isChatLink(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
