package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// helpEntry is one row of the arguments or flags section
type helpEntry struct {
	name       string
	help       string
	defaultVal string
}

// helpExamples are shown after the flags
var helpExamples = []struct{ cmd, what string }{
	{"dropcue greeting.wav", "analyse one greeting in the terminal UI"},
	{"dropcue -j 4 --json - calls/*.flac", "analyse in parallel, export voicemail_drops_<date>.json"},
	{"dropcue --plain --logs -c tuning.yaml *.wav", "summary table and per-file reports with custom thresholds"},
	{"dropcue --watch ./inbox", "analyse greetings as they arrive"},
}

// StyledHelpPrinter creates a custom help printer with Lipgloss styling
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render("Dropcue 📞"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Voicemail drop timestamp detector"))
		sb.WriteString("\n")

		writeHelpSection(&sb, "Usage:")
		fmt.Fprintf(&sb, "  %s [flags] <files> ...\n", ctx.Model.Name)

		if args := positionalEntries(ctx); len(args) > 0 {
			writeHelpSection(&sb, "Arguments:")
			writeHelpEntries(&sb, args, helpArgStyle)
		}

		writeHelpSection(&sb, "Flags:")
		writeHelpEntries(&sb, flagEntries(ctx), helpFlagStyle)

		writeHelpSection(&sb, "Examples:")
		for _, ex := range helpExamples {
			fmt.Fprintf(&sb, "  %s\n      %s\n", ex.cmd, helpDefaultStyle.Render(ex.what))
		}

		writeHelpSection(&sb, "Configuration:")
		sb.WriteString("  Thresholds live under [analysis] in TOML, or analysis: in .yaml/.yml files.\n")
		sb.WriteString("  Absent keys keep their defaults; unknown keys are rejected.\n\n")

		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

func writeHelpSection(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
}

// writeHelpEntries prints entries with their help text aligned in one column
func writeHelpEntries(sb *strings.Builder, entries []helpEntry, style lipgloss.Style) {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.name))
	}

	for _, e := range entries {
		sb.WriteString("  ")
		sb.WriteString(style.Render(e.name))
		if e.help != "" {
			sb.WriteString(strings.Repeat(" ", width-len(e.name)+2))
			sb.WriteString(e.help)
		}
		if e.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func positionalEntries(ctx *kong.Context) []helpEntry {
	var entries []helpEntry
	for _, arg := range ctx.Model.Node.Positional {
		entries = append(entries, helpEntry{name: arg.Summary(), help: arg.Help})
	}
	return entries
}

func flagEntries(ctx *kong.Context) []helpEntry {
	entries := []helpEntry{{name: "-h, --help", help: "Show context-sensitive help."}}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" {
			continue
		}

		name := "--" + f.Name
		if f.Short != 0 {
			name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() {
			name += "=" + strings.ToUpper(f.FormatPlaceHolder())
		}

		var def string
		if f.HasDefault && !f.IsBool() {
			def = f.Default
		}
		entries = append(entries, helpEntry{name: name, help: f.Help, defaultVal: def})
	}

	return entries
}
