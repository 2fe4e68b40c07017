// Package tui provides a Bubble Tea terminal user interface for radar.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/radar-music/radar/internal/app"
	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/pricing"
	"github.com/radar-music/radar/internal/upload"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateConfirm
	StateUploading
	StateComplete
	StateError
)

const maxLogs = 10

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   upload.ProgressLevel
}

// eventLog collects progress events from the upload goroutine until the
// next tick drains them.
type eventLog struct {
	mu      sync.Mutex
	pending []LogEntry
}

func (l *eventLog) add(e upload.ProgressEvent) {
	l.mu.Lock()
	l.pending = append(l.pending, LogEntry{Message: e.Message, Level: e.Level})
	l.mu.Unlock()
}

func (l *eventLog) drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	app       *app.App
	logs      []LogEntry
	events    *eventLog
	err       error

	// Upload context
	ctx    context.Context
	cancel context.CancelFunc

	release   *model.Release
	summary   *pricing.Summary
	assembler *upload.Assembler
	outcome   *upload.Outcome

	// Polled upload progress
	phase   upload.State
	results []model.UploadResult

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(a *app.App) Model {
	ti := textinput.New()
	ti.Placeholder = "release.yaml"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		app:       a,
		events:    &eventLog{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// LoadedMsg is sent when the manifest is loaded and priced.
	LoadedMsg struct {
		Release *model.Release
		Summary *pricing.Summary
		Err     error
	}

	// ReadyMsg is sent when the assembler is built.
	ReadyMsg struct {
		Assembler *upload.Assembler
		Options   upload.Options
		Err       error
	}

	// UploadDoneMsg is sent when the release upload returns.
	UploadDoneMsg struct {
		Outcome *upload.Outcome
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-30, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateConfirm:
				m.state = StateInput
				m.release = nil
				m.summary = nil
				m.textInput.Focus()
			case StateLoading, StateUploading:
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			switch {
			case m.state == StateInput && m.textInput.Value() != "":
				m.state = StateLoading
				return m, tea.Batch(m.loadRelease(), m.spinner.Tick)
			case m.state == StateConfirm:
				m.state = StateLoading
				return m, tea.Batch(m.prepareUpload(), m.spinner.Tick)
			}

		case "tab":
			if m.state == StateInput {
				m.toggleProvider()
			}

		case "ctrl+r":
			if m.state == StateInput {
				m.app.Settings.Register = !m.app.Settings.Register
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case LoadedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.release = msg.Release
			m.summary = msg.Summary
			m.state = StateConfirm
		}

	case ReadyMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.assembler = msg.Assembler
			m.state = StateUploading
			cmds = append(cmds, startUpload(m.ctx, msg.Assembler, m.release, msg.Options), m.tickProgress())
		}

	case UploadDoneMsg:
		m.poll()
		m.outcome = msg.Outcome
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.state == StateUploading {
			m.poll()
			cmds = append(cmds, m.progress.SetPercent(overall(m.results)), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) toggleProvider() {
	if m.app.Settings.Provider == string(backend.ProviderTurbo) {
		m.app.Settings.Provider = string(backend.ProviderIrys)
	} else {
		m.app.Settings.Provider = string(backend.ProviderTurbo)
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.events.drain()
	m.err = nil
	m.release = nil
	m.summary = nil
	m.assembler = nil
	m.outcome = nil
	m.results = nil
	m.phase = upload.StateNotStarted
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// poll copies the assembler's state and queued events into the model.
func (m *Model) poll() {
	if m.assembler != nil {
		m.phase = m.assembler.State()
		m.results = m.assembler.Results()
	}
	for _, entry := range m.events.drain() {
		// Filter verbose messages if not in verbose mode
		if entry.Level == upload.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, entry)
	}
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// overall returns the mean track progress as a fraction.
func overall(results []model.UploadResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Progress
	}
	return sum / float64(len(results)) / 100
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("📡 Radar"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Publish releases to the permaweb"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateConfirm:
		b.WriteString(m.viewConfirm())
	case StateUploading:
		b.WriteString(m.viewUploading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder
	s := m.app.Settings

	b.WriteString(subtitleStyle.Render("Release manifest:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Provider: %s (tab)\n", s.Provider))
	b.WriteString(fmt.Sprintf("  %s Register assets (ctrl+r)\n", checkbox(s.Register)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Wallet: %s", s.WalletPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.release == nil {
		b.WriteString(subtitleStyle.Render("Loading release and fetching prices..."))
	} else {
		b.WriteString(subtitleStyle.Render("Preparing upload..."))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewConfirm() string {
	var b strings.Builder
	r := m.release

	b.WriteString(successStyle.Render(fmt.Sprintf("%s (%d track(s))", r.Title, len(r.Tracks))))
	b.WriteString("\n")
	for i, track := range r.Tracks {
		title := track.Metadata.Title
		if title == "" {
			title = r.Title
		}
		b.WriteString(trackStyle.Render(fmt.Sprintf("  ♪ %d. %s", i+1, title)))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s", humanize.Bytes(uint64(track.Audio.Size())))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderSummary())

	return b.String()
}

func (m Model) renderSummary() string {
	s := m.summary
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(infoStyle.Render(fmt.Sprintf("Size: %s via %s", humanize.Bytes(uint64(s.Bytes)), s.Provider)))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Cost: %s | Balance: %s", amountText(s.Cost), amountText(s.Balance))))
	b.WriteString("\n")
	if enough, ok := s.Sufficient(); ok && !enough {
		b.WriteString(warningStyle.Render("! Balance does not cover the upload cost"))
		b.WriteString("\n")
	}
	return b.String()
}

func amountText(a *pricing.Amount) string {
	if a == nil {
		return "unknown"
	}
	return a.String()
}

func (m Model) viewUploading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(phaseText(m.phase)))
	b.WriteString("\n\n")

	b.WriteString(m.progress.View())
	b.WriteString("\n\n")

	for i, r := range m.results {
		title := ""
		if m.release != nil && i < len(m.release.Tracks) {
			title = m.release.Tracks[i].Metadata.Title
		}
		b.WriteString(trackStyle.Render(fmt.Sprintf("  %d. %-24s ", i+1, truncate(title, 24))))
		b.WriteString(m.progress.ViewAs(r.Progress / 100))
		b.WriteString(" ")
		b.WriteString(statusText(r))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func phaseText(s upload.State) string {
	switch s {
	case upload.StateArtworkUploading:
		return "Uploading artwork..."
	case upload.StateTracksUploading:
		return "Uploading tracks..."
	case upload.StateCollectionUploading:
		return "Uploading collection..."
	case upload.StateRegistering:
		return "Registering assets..."
	}
	return "Starting upload..."
}

func statusText(r model.UploadResult) string {
	switch r.Status {
	case model.StatusSuccess:
		if r.Registered {
			return successStyle.Render("✓ registered")
		}
		return successStyle.Render("✓")
	case model.StatusFailed:
		return errorStyle.Render("✗")
	case model.StatusInProgress:
		return infoStyle.Render("…")
	}
	return dimStyle.Render("·")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) viewComplete() string {
	o := m.outcome
	if o == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✨ Release published!\n\nTracks: %d\nRegistered: %d/%d\n", len(o.TrackIDs), o.Registered(), len(o.TrackIDs))
	if o.CollectionID != "" {
		fmt.Fprintf(&b, "Collection: %s\n", o.CollectionID)
	}
	for i, id := range o.TrackIDs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, id)
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case upload.LevelError:
			style = errorStyle
			prefix = "✗"
		case upload.LevelWarning:
			style = warningStyle
			prefix = "!"
		case upload.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case upload.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: load • tab: provider • ctrl+r: register • ctrl+v: verbose • esc: quit"
	case StateConfirm:
		return "enter: upload • esc: back"
	case StateLoading, StateUploading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new upload • q: quit"
	}
	return ""
}

// loadRelease loads the manifest and prices the upload.
func (m Model) loadRelease() tea.Cmd {
	ctx, a, path := m.ctx, m.app, strings.TrimSpace(m.textInput.Value())
	return func() tea.Msg {
		release, err := a.Loader().Load(ctx, path)
		if err != nil {
			return LoadedMsg{Err: err}
		}

		provider, err := a.Provider()
		if err != nil {
			return LoadedMsg{Err: err}
		}
		var address string
		if w, err := a.Wallet(); err == nil {
			address = w.Address()
		}
		summary, err := a.Pricing().Summarize(ctx, provider, address, release.TotalSize(), a.Logger)
		if err != nil {
			return LoadedMsg{Err: err}
		}

		return LoadedMsg{Release: release, Summary: summary}
	}
}

// prepareUpload builds the assembler. Progress events are queued and
// picked up by the next tick.
func (m Model) prepareUpload() tea.Cmd {
	ctx, a, events := m.ctx, m.app, m.events
	return func() tea.Msg {
		assembler, opts, err := a.NewAssembler(ctx, events.add)
		return ReadyMsg{Assembler: assembler, Options: opts, Err: err}
	}
}

// startUpload runs the upload in background.
func startUpload(ctx context.Context, assembler *upload.Assembler, release *model.Release, opts upload.Options) tea.Cmd {
	return func() tea.Msg {
		outcome, err := assembler.Upload(ctx, release, opts)
		return UploadDoneMsg{Outcome: outcome, Err: err}
	}
}

// Run starts the TUI application.
func Run(a *app.App) error {
	p := tea.NewProgram(NewModel(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
