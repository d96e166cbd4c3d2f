package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/dropcue/internal/audio"
	"github.com/linuxmatters/dropcue/internal/processor"
)

// FileStartMsg indicates a file has been picked up for analysis
type FileStartMsg struct {
	FileIndex int
}

// FileDecodedMsg indicates a file's audio has been decoded
type FileDecodedMsg struct {
	FileIndex int
	Metadata  *audio.Metadata
}

// FileCompleteMsg indicates a file has finished analysis
type FileCompleteMsg struct {
	FileIndex int
	Result    processor.FileResult
}

// AllCompleteMsg indicates the batch has finished or was cancelled
type AllCompleteMsg struct {
	Results []processor.FileResult
	Err     error // context error when cancelled
}

// tickMsg advances the spinner
type tickMsg struct{}

// MsgFromEvent converts a batch progress event to the matching UI message.
func MsgFromEvent(ev processor.FileEvent) tea.Msg {
	switch ev.Stage {
	case processor.FileStarted:
		return FileStartMsg{FileIndex: ev.Index}
	case processor.FileDecoded:
		return FileDecodedMsg{FileIndex: ev.Index, Metadata: ev.Metadata}
	default:
		msg := FileCompleteMsg{FileIndex: ev.Index}
		if ev.Result != nil {
			msg.Result = *ev.Result
		}
		return msg
	}
}
