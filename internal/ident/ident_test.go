package ident

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"  7", 7, true},
		{"-3", -3, true},
		{"+9", 9, true},
		{"12abc", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"9223372036854775807", 9223372036854775807, true},
		{"9223372036854775808", 0, false},
		{"18446744073709551658", 0, false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("42", " 42") {
		t.Error("expected 42 and ' 42' to be equal")
	}
	if Equal("42", "43") {
		t.Error("expected 42 and 43 to differ")
	}
	if Equal("x", "x") {
		t.Error("unparseable ids must not compare equal")
	}
}
