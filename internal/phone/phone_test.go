package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9876543210", "+919876543210"},
		{"98765 43210", "+919876543210"},
		{"+1 (415) 555-0100", "+14155550100"},
		{"+919876543210", "+919876543210"},
		{"not a number", "not a number"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeE164(tt.in); got != tt.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("9876543210") {
		t.Error("local mobile number should normalize to valid")
	}
	if Valid("12") {
		t.Error("short string should be invalid")
	}
	if Valid("hello") {
		t.Error("non-numeric string should be invalid")
	}
}

func TestSameNumber(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"+919876543210", "+919876543210", true},
		{"+919876543210", "98765 43210", true},
		{"+14155550100", "+1 (415) 555-0100", true},
		{"4155550100", "+1 (415) 555-0100", true},
		{"+14155550100", "4155550100", true},
		{"+919876543210", "9876543210", true},
		{"123", "456", false},
		{"", "+14155550100", false},
	}
	for _, tt := range tests {
		if got := SameNumber(tt.a, tt.b); got != tt.want {
			t.Errorf("SameNumber(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
