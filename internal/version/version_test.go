package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColorizedPlain(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = true

	cases := map[string]string{
		"1.2.3":                "1.2.3",
		"0.1.0-dev":            "0.1.0-dev",
		"1.2.3-rc.1+build.123": "1.2.3-rc.1+build.123",
		"nightly":              "nightly",
		"  ":                   "dev",
	}
	for in, want := range cases {
		Version = in
		if got := Colorized(); got != want {
			t.Errorf("Colorized(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestColorizedKeepsDigits(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = false

	Version = "4.5.6"
	got := Colorized()
	if got == "4.5.6" {
		t.Fatalf("expected escape sequences when colour is enabled")
	}
	for _, d := range []string{"4", "5", "6"} {
		if !containsRune(got, rune(d[0])) {
			t.Fatalf("component %s lost in %q", d, got)
		}
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
