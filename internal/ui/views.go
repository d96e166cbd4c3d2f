package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/dropcue/internal/processor"
)

// Spinner frames for files still being analysed
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	primaryColor = lipgloss.Color("#A40000")
	mutedColor   = lipgloss.Color("#888888")
	okColor      = lipgloss.Color("#00AA00")
	activeColor  = lipgloss.Color("#FFA500")

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// triggerColors distinguishes how each drop was found
var triggerColors = map[processor.TriggerType]lipgloss.Color{
	processor.TriggerBeep:      okColor,
	processor.TriggerSilence:   lipgloss.Color("#00AAAA"),
	processor.TriggerSpeechEnd: activeColor,
	processor.TriggerFallback:  mutedColor,
	processor.TriggerError:     primaryColor,
}

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Render("Dropcue 📞 - Voicemail Drop Detector")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Analysing %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder
	for _, file := range m.Files {
		b.WriteString(renderFileEntry(file, m.spinner))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress, spinner int) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, renderDrop(file.Result))

	case StatusDecoding, StatusAnalyzing:
		icon := lipgloss.NewStyle().Foreground(activeColor).Render(spinnerFrames[spinner%len(spinnerFrames)])
		stage := "Decoding..."
		if file.Status == StatusAnalyzing {
			stage = "Analysing"
			if md := file.Metadata; md != nil {
				stage += fmt.Sprintf(" %.1fs of %s audio...", md.Duration, strings.ToUpper(md.Format))
			}
		}
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, mutedStyle.Render(stage))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(primaryColor).Render("✗")
		details := "unknown error"
		if file.Result != nil {
			details = file.Result.Details
		} else if file.Error != nil {
			details = file.Error.Error()
		}
		return fmt.Sprintf(" %s %s\n   Error: %s", icon, fileName, details)

	case StatusSkipped:
		icon := mutedStyle.Render("–")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, mutedStyle.Render("Skipped"))

	default:
		icon := mutedStyle.Render("○")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, mutedStyle.Render("Queued..."))
	}
}

// renderDrop renders the drop timestamp line for a finished file
func renderDrop(r *processor.AnalysisResult) string {
	if r == nil {
		return ""
	}
	trigger := lipgloss.NewStyle().
		Bold(true).
		Foreground(triggerColors[r.Trigger]).
		Render(r.Trigger.Label())
	return fmt.Sprintf("Drop at %.3fs | %s %d%% | %s",
		r.DropTimestamp, trigger, int(r.Confidence*100+0.5), mutedStyle.Render(r.Details))
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = max(0, min(progress, 1))
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	var progress float64
	if m.TotalFiles > 0 {
		progress = float64(m.Finished()) / float64(m.TotalFiles)
	}

	content := fmt.Sprintf("%s\n%d of %d analysed (%d failed) | q to cancel",
		renderProgressBar(progress, 40), m.Finished(), m.TotalFiles, m.FailedFiles)
	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(okColor).
		Render("✨ Analysis Complete!")
	if m.Finished() < m.TotalFiles {
		header = lipgloss.NewStyle().
			Bold(true).
			Foreground(activeColor).
			Render("Analysis Cancelled")
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(file, 0))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(renderTriggerCounts(m))
	b.WriteString("\n")

	return b.String()
}

// renderTriggerCounts summarises how the drops were found, in cascade order
func renderTriggerCounts(m Model) string {
	counts := map[processor.TriggerType]int{}
	for _, f := range m.Files {
		if f.Result != nil {
			counts[f.Result.Trigger]++
		}
	}

	order := []processor.TriggerType{
		processor.TriggerBeep,
		processor.TriggerSilence,
		processor.TriggerSpeechEnd,
		processor.TriggerFallback,
		processor.TriggerError,
	}
	var parts []string
	for _, t := range order {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", t.Label(), n))
		}
	}
	if len(parts) == 0 {
		return "No files analysed"
	}
	return strings.Join(parts, " | ")
}
