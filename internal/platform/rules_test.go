// ABOUTME: Tests for platform rule precedence and host detection helpers
// ABOUTME: Verifies default-disallow and last-matching-rule-wins semantics

package platform

import "testing"

func TestAllows(t *testing.T) {
	t.Parallel()

	windows := Host{OS: Windows, Arch: "64"}
	osx := Host{OS: OSX, Arch: "64", Version: "10.5.8"}

	tests := []struct {
		name  string
		rules []Rule
		host  Host
		want  bool
	}{
		{"no rules", nil, windows, true},
		{
			"unconditional disallow then osx allow on windows",
			[]Rule{{Action: Disallow}, {Action: Allow, OS: &OSClause{Name: "osx"}}},
			windows, false,
		},
		{
			"unconditional disallow then osx allow on osx",
			[]Rule{{Action: Disallow}, {Action: Allow, OS: &OSClause{Name: "osx"}}},
			osx, true,
		},
		{
			"allow all except osx",
			[]Rule{{Action: Allow}, {Action: Disallow, OS: &OSClause{Name: "osx"}}},
			windows, true,
		},
		{
			"only os rule that does not match",
			[]Rule{{Action: Allow, OS: &OSClause{Name: "linux"}}},
			windows, false,
		},
		{
			"case-insensitive name",
			[]Rule{{Action: Allow, OS: &OSClause{Name: "WINDOWS"}}},
			windows, true,
		},
		{
			"version pattern matches",
			[]Rule{{Action: Allow}, {Action: Disallow, OS: &OSClause{Name: "osx", Version: `^10\.5\.\d$`}}},
			osx, false,
		},
		{
			"arch clause selects 32-bit only",
			[]Rule{{Action: Allow, OS: &OSClause{Arch: "x86"}}},
			windows, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Allows(tt.rules, tt.host); got != tt.want {
				t.Errorf("Allows() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	if a, err := ParseAction("allow"); err != nil || a != Allow {
		t.Errorf("ParseAction(allow) = %q, %v", a, err)
	}
	if _, err := ParseAction("maybe"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestHostMapping(t *testing.T) {
	t.Parallel()

	if got := osFromGOOS("darwin"); got != OSX {
		t.Errorf("osFromGOOS(darwin) = %q; want osx", got)
	}
	if got := osFromGOOS("linux"); got != Linux {
		t.Errorf("osFromGOOS(linux) = %q; want linux", got)
	}
	if got := archFromGOARCH("amd64"); got != "64" {
		t.Errorf("archFromGOARCH(amd64) = %q; want 64", got)
	}
	if got := archFromGOARCH("386"); got != "32" {
		t.Errorf("archFromGOARCH(386) = %q; want 32", got)
	}
	if sep := (Host{OS: Windows}).PathListSeparator(); sep != ";" {
		t.Errorf("windows separator = %q", sep)
	}
	if sep := (Host{OS: Linux}).PathListSeparator(); sep != ":" {
		t.Errorf("linux separator = %q", sep)
	}
}
