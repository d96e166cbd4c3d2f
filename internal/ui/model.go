// Package ui provides the Bubbletea terminal user interface for dropcue
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/dropcue/internal/audio"
	"github.com/linuxmatters/dropcue/internal/processor"
	"github.com/rs/zerolog"
)

// FileStatus represents the analysis state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusDecoding
	StatusAnalyzing
	StatusComplete
	StatusError
	StatusSkipped
)

// spinnerInterval is how often the active-file spinner advances
const spinnerInterval = 100 * time.Millisecond

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath string
	Status    FileStatus
	StartTime time.Time
	Elapsed   time.Duration

	Metadata *audio.Metadata
	Result   *processor.AnalysisResult
	Error    error
}

// Model is the Bubbletea model for the analysis UI.
// Several files may be active at once when the batch runs in parallel, so
// every message carries the index of the file it belongs to.
type Model struct {
	Files          []FileProgress
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	StartTime time.Time
	Done      bool
	Cancelled bool

	// Terminal dimensions
	Width  int
	Height int

	spinner int
	cancel  func()
	log     zerolog.Logger
}

// NewModel creates a new UI model with the given input files.
// cancel is called when the user quits before the batch completes; it may be nil.
func NewModel(inputFiles []string, cancel func(), log zerolog.Logger) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:      files,
		TotalFiles: len(inputFiles),
		StartTime:  time.Now(),
		cancel:     cancel,
		log:        log,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.Done && m.cancel != nil {
				m.log.Debug().Msg("user cancelled batch")
				m.cancel()
			}
			m.Cancelled = !m.Done
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinner = (m.spinner + 1) % len(spinnerFrames)
		return m, tick()

	case FileStartMsg:
		if fp := m.file(msg.FileIndex); fp != nil {
			fp.Status = StatusDecoding
			fp.StartTime = time.Now()
			m.log.Debug().Int("index", msg.FileIndex).Str("file", fp.InputPath).Msg("file started")
		}
		return m, nil

	case FileDecodedMsg:
		if fp := m.file(msg.FileIndex); fp != nil {
			fp.Status = StatusAnalyzing
			fp.Metadata = msg.Metadata
		}
		return m, nil

	case FileCompleteMsg:
		if fp := m.file(msg.FileIndex); fp != nil {
			m.complete(fp, msg.Result)
		}
		return m, nil

	case AllCompleteMsg:
		// Files never started carry only the cancellation
		for i, fr := range msg.Results {
			if fp := m.file(i); fp != nil && fr.Skipped() && !fp.finished() {
				fp.Status = StatusSkipped
				fp.Error = fr.Err
			}
		}
		m.Done = true
		m.log.Debug().Int("complete", m.CompletedFiles).Int("failed", m.FailedFiles).Msg("batch finished")
		return m, tea.Quit
	}

	return m, nil
}

// file returns the progress entry for index, or nil when out of range.
func (m *Model) file(index int) *FileProgress {
	if index < 0 || index >= len(m.Files) {
		return nil
	}
	return &m.Files[index]
}

func (m *Model) complete(fp *FileProgress, fr processor.FileResult) {
	fp.Elapsed = time.Since(fp.StartTime)
	fp.Result = fr.Result
	fp.Metadata = fr.Metadata
	fp.Error = fr.Err

	if fr.Result == nil || fr.Result.Trigger == processor.TriggerError {
		fp.Status = StatusError
		m.FailedFiles++
		return
	}
	fp.Status = StatusComplete
	m.CompletedFiles++
}

// finished reports whether the file has a final result.
func (fp *FileProgress) finished() bool {
	return fp.Status == StatusComplete || fp.Status == StatusError
}

// Finished returns how many files have left the queue.
func (m Model) Finished() int {
	return m.CompletedFiles + m.FailedFiles
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
