// ABOUTME: Platform rule evaluation for conditional library installation
// ABOUTME: Default disallow; the last rule whose condition matches the host wins

package platform

import (
	"fmt"
	"regexp"
	"strings"
)

// Action is the outcome a rule selects when it applies.
type Action string

const (
	Allow    Action = "allow"
	Disallow Action = "disallow"
)

// ParseAction validates a rule action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Allow, Disallow:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown rule action %q", s)
	}
}

// OSClause restricts a rule to hosts matching every populated field.
type OSClause struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`    // "x86" selects 32-bit hosts
	Version string `json:"version,omitempty"` // regular expression
}

// Rule is a single allow/disallow entry.
type Rule struct {
	Action Action    `json:"action"`
	OS     *OSClause `json:"os,omitempty"`
}

// Allows reports whether an artifact guarded by rules applies to host.
// An empty rule list always allows.
func Allows(rules []Rule, host Host) bool {
	if len(rules) == 0 {
		return true
	}

	action := Disallow
	for _, r := range rules {
		if r.OS != nil && !r.OS.matches(host) {
			continue
		}
		action = r.Action
	}
	return action == Allow
}

func (c *OSClause) matches(host Host) bool {
	if c.Name != "" && !strings.EqualFold(c.Name, string(host.OS)) {
		return false
	}
	if c.Arch != "" && !archMatches(c.Arch, host.Arch) {
		return false
	}
	if c.Version != "" {
		re, err := regexp.Compile(c.Version)
		if err != nil || host.Version == "" || !re.MatchString(host.Version) {
			return false
		}
	}
	return true
}

func archMatches(clause, hostArch string) bool {
	switch strings.ToLower(clause) {
	case "x86", "32":
		return hostArch == "32"
	case "x86_64", "amd64", "64":
		return hostArch == "64"
	default:
		return false
	}
}
