// ABOUTME: describe subcommand: renders an instance's unified manifest as a markdown report
// ABOUTME: Styled through glamour on a terminal, raw markdown otherwise

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/mauromedda/mclaunch-go/internal/config"
	"github.com/mauromedda/mclaunch-go/internal/install"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
)

const defaultWrap = 100

func runDescribe(args []string, streams ioStreams) error {
	fs, common := newFlagSet("describe", "<instance>", streams)
	raw := fs.Bool("raw", false, "Print markdown without styling")
	rest, err := parse(fs, common, args, 1, 1)
	if err != nil {
		return err
	}
	inst, err := loadInstance(rest[0])
	if err != nil {
		return err
	}
	e, err := newEnv(common, inst.Dir, streams)
	if err != nil {
		return err
	}

	l := layoutFor(inst)
	m, err := install.LoadUnified(l)
	if err != nil {
		return fmt.Errorf("instance %s is not installed: %w", inst.Name, err)
	}
	md := describeMarkdown(inst, m, l, platform.Current())

	if *raw || !e.interactive() {
		fmt.Fprint(streams.out, md)
		return nil
	}
	out, err := renderMarkdown(md, terminalWidth(streams))
	if err != nil {
		return err
	}
	fmt.Fprintln(streams.out, out)
	return nil
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n "), nil
}

func terminalWidth(streams ioStreams) int {
	f, ok := streams.out.(*os.File)
	if !ok {
		return defaultWrap
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWrap
	}
	return w
}

// describeMarkdown lists what launching inst on host would use and whether
// each file is on disk.
func describeMarkdown(inst *config.Instance, m *manifest.Manifest, l install.Layout, host platform.Host) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", inst.Name)
	fmt.Fprintf(&b, "- **version:** %s (%s)\n", m.ID, m.Type)
	if m.LoaderID != "" {
		fmt.Fprintf(&b, "- **loader:** %s\n", m.LoaderID)
	}
	fmt.Fprintf(&b, "- **main class:** `%s`\n", m.MainClass)
	fmt.Fprintf(&b, "- **assets:** %s\n", m.AssetIndexName())
	fmt.Fprintf(&b, "- **game jar:** %s\n", status(l.GameJarPath()))
	fmt.Fprintf(&b, "- **directory:** `%s`\n", inst.Dir)

	b.WriteString("\n## Libraries\n\n")
	b.WriteString("| library | status |\n|---|---|\n")
	skipped := 0
	for i := range m.Libraries {
		rec := &m.Libraries[i]
		if !rec.Applies(host) {
			skipped++
			continue
		}
		state := "natives"
		if rec.HasArtifact() {
			state = status(l.LibraryPath(rec.Path))
		}
		if rec.ExistenceGuaranteed {
			state += " (loader)"
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", rec.Name, state)
	}
	if skipped > 0 {
		fmt.Fprintf(&b, "\n%d libraries do not apply to %s.\n", skipped, host.OS)
	}
	return b.String()
}

func status(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "missing"
	}
	return "present"
}
