// ABOUTME: Decides the terminal background before bubbletea's init probes it with OSC queries
// ABOUTME: Import with _ ahead of any package that pulls in bubbletea

package termfix

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// This package must not import bubbletea, directly or transitively, so
// that its init runs first and the background query never fires.
func init() {
	lipgloss.SetHasDarkBackground(darkBackground(os.Getenv("COLORFGBG")))
}

// darkBackground reads the "fg;bg" hint some terminals export. Anything
// unparseable counts as dark.
func darkBackground(colorfgbg string) bool {
	if colorfgbg == "" {
		return true
	}
	parts := strings.Split(colorfgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return true
	}
	// ANSI 7 (white) and 9-15 (bright colors) are light backgrounds.
	return !(bg == 7 || (bg >= 9 && bg <= 15))
}
