package timestamp

import (
	"errors"
	"testing"
)

func TestParse_BareSeconds(t *testing.T) {
	got, err := Parse("135")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 135 {
		t.Errorf("expected 135, got %d", got)
	}
}

func TestParse_ColonForms(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"02:15", 135},
		{"2:15", 135},
		{"00:00", 0},
		{"59:59", 3599},
		{"1:02:15", 3735},
		{"1:00:00", 3600},
		{"10:00:00", 36000},
		{" 2:15 ", 135},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2", "1:xx", "-5", "10:60", "61:00", "1:60:00", "1:00:60", "1:2:3:4", "2:15.5"} {
		if _, err := Parse(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q): expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"135", true},
		{"0", true},
		{"02:15", true},
		{"2:15", true},
		// Minute position at or above 60 is invalid in the two-part form.
		{"61:00", false},
		{"60:00", false},
		// Second position at or above 60 is always invalid.
		{"10:60", false},
		{"1:00:60", false},
		// Hours are unconstrained in the three-part form.
		{"61:30:00", true},
		{"99:59:59", true},
		{"", false},
		{"abc", false},
		{"1:2", false},
		{"-5", false},
		{"100:00:00", false}, // hour component capped at two digits by format
	}
	for _, c := range cases {
		if got := IsValid(c.in); got != c.want {
			t.Errorf("IsValid(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{135, "02:15"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3665, "1:01:05"},
		{36000, "10:00:00"},
		{-3, "00:00"},
	}
	for _, c := range cases {
		if got := Format(c.in); got != c.want {
			t.Errorf("Format(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormat_ParseRoundTrip(t *testing.T) {
	for _, s := range []int{0, 1, 59, 60, 61, 135, 3599, 3600, 3661, 7425, 35999} {
		parsed, err := Parse(Format(s))
		if err != nil {
			t.Fatalf("Parse(Format(%d)): %v", s, err)
		}
		if parsed != s {
			t.Errorf("Parse(Format(%d)) = %d", s, parsed)
		}
	}
}

func TestParse_FormatRoundTrip(t *testing.T) {
	// For inputs under one hour, formatting the parsed value yields the
	// zero-padded normalization of the input.
	cases := map[string]string{
		"2:15":  "02:15",
		"02:15": "02:15",
		"0:05":  "00:05",
		"59:59": "59:59",
	}
	for in, want := range cases {
		parsed, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := Format(parsed); got != want {
			t.Errorf("Format(Parse(%q)) = %q, want %q", in, got, want)
		}
	}
}
