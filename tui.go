package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zoolingo/controller"
	"zoolingo/history"
	"zoolingo/notify"
	"zoolingo/translator"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Seconds int }
type AudioLevelMsg struct{ Level float64 }
type ProcessingMsg struct{ Active bool }
type ResultMsg struct{ Result translator.Result }
type HistoryMsg struct{ Entries []translator.Result }
type NotificationsMsg struct{ Active []notify.Notification }
type StatusLineMsg struct{ Text string }
type BackendStatusMsg struct{ Online bool }
type tickMsg time.Time

// tuiSink forwards controller events into the Bubble Tea program.
type tuiSink struct{ p *tea.Program }

func (s tuiSink) RecordingStart()                            { s.p.Send(RecordingStartMsg{}) }
func (s tuiSink) RecordingStop()                             { s.p.Send(RecordingStopMsg{}) }
func (s tuiSink) RecordingTick(seconds int)                  { s.p.Send(RecordingTickMsg{Seconds: seconds}) }
func (s tuiSink) AudioLevel(level float64)                   { s.p.Send(AudioLevelMsg{Level: level}) }
func (s tuiSink) Processing(active bool)                     { s.p.Send(ProcessingMsg{Active: active}) }
func (s tuiSink) Result(r translator.Result)                 { s.p.Send(ResultMsg{Result: r}) }
func (s tuiSink) History(entries []translator.Result)        { s.p.Send(HistoryMsg{Entries: entries}) }
func (s tuiSink) Notifications(active []notify.Notification) { s.p.Send(NotificationsMsg{Active: active}) }
func (s tuiSink) StatusLine(text string)                     { s.p.Send(StatusLineMsg{Text: text}) }

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateProcessing
)

type tuiMode int

const (
	modeMain tuiMode = iota
	modeDemoPicker
	modeFilePrompt
)

type tuiInfo struct {
	backend string
	online  bool
	device  string
	health  func(ctx context.Context) error
}

type tuiModel struct {
	ctl  *controller.Controller
	info tuiInfo

	state         tuiState
	mode          tuiMode
	frame         int
	elapsed       int
	audioLevel    float64
	peakLevel     float64
	width, height int
	statusLine    string
	latest        *translator.Result
	history       []translator.Result
	notes         []notify.Notification
	showHistory   bool
	demos         []translator.Demo
	demoCursor    int
	pathInput     string
}

const (
	orbWidth     = 34
	demoRows     = 10
	historyLimit = history.Capacity
)

var (
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("43")).Bold(true)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("43")).Bold(true)
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	severityStyles = map[notify.Severity]lipgloss.Style{
		notify.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		notify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
	severityIcons = map[notify.Severity]string{
		notify.Success: "✓",
		notify.Error:   "✗",
		notify.Warning: "⚠",
		notify.Info:    "•",
	}
)

func newTUIModel(ctl *controller.Controller, info tuiInfo) tuiModel {
	m := tuiModel{
		ctl:     ctl,
		info:    info,
		demos:   translator.Catalog(),
		history: ctl.History(),
		notes:   ctl.Notifications(),
	}
	if r, ok := ctl.Latest(); ok {
		m.latest = &r
	}
	return m
}

func NewTUIProgram(ctl *controller.Controller, info tuiInfo) *tea.Program {
	return tea.NewProgram(newTUIModel(ctl, info), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

// do runs a controller call off the UI goroutine. Controller events re-enter
// the program through Send, which must not happen inside Update.
func do(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		fn(context.Background())
		return nil
	}
}

func (m tuiModel) checkHealth() tea.Cmd {
	if m.info.health == nil {
		return nil
	}
	health := m.info.health
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		return BackendStatusMsg{Online: health(ctx) == nil}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeDemoPicker:
			return m.updateDemoPicker(msg)
		case modeFilePrompt:
			return m.updateFilePrompt(msg)
		}
		return m.updateMain(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.elapsed = 0
		m.audioLevel = 0
		m.peakLevel = 0

	case RecordingStopMsg:
		if m.state == tuiStateRecording {
			m.state = tuiStateIdle
		}
		m.audioLevel = 0

	case RecordingTickMsg:
		m.elapsed = msg.Seconds

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = msg.Level
			m.peakLevel = max(m.peakLevel, msg.Level)
		}

	case ProcessingMsg:
		if msg.Active {
			m.state = tuiStateProcessing
		} else if m.state == tuiStateProcessing {
			m.state = tuiStateIdle
		}

	case ResultMsg:
		r := msg.Result
		m.latest = &r

	case HistoryMsg:
		m.history = msg.Entries

	case NotificationsMsg:
		m.notes = msg.Active

	case StatusLineMsg:
		m.statusLine = msg.Text

	case BackendStatusMsg:
		m.info.online = msg.Online
	}
	return m, nil
}

func (m tuiModel) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.ctl
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case " ", "r":
		return m, do(ctl.ToggleCapture)
	case "d":
		m.mode = modeDemoPicker
	case "f":
		m.mode = modeFilePrompt
		m.pathInput = ""
	case "h":
		m.showHistory = !m.showHistory
	case "c":
		return m, do(func(context.Context) error { ctl.ClearHistory(); return nil })
	case "p":
		return m, do(ctl.Replay)
	case "y":
		return m, do(func(context.Context) error { return ctl.CopyLatest() })
	case "x":
		if len(m.notes) > 0 {
			id := m.notes[len(m.notes)-1].ID
			return m, do(func(context.Context) error { ctl.DismissNotification(id); return nil })
		}
	case "s":
		return m, m.checkHealth()
	}
	return m, nil
}

func (m tuiModel) updateDemoPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "d":
		m.mode = modeMain
	case "up", "k":
		if m.demoCursor > 0 {
			m.demoCursor--
		}
	case "down", "j":
		if m.demoCursor < len(m.demos)-1 {
			m.demoCursor++
		}
	case "enter":
		m.mode = modeMain
		if len(m.demos) == 0 {
			return m, nil
		}
		d := m.demos[m.demoCursor]
		return m, do(func(ctx context.Context) error { return m.ctl.SubmitDemo(ctx, d) })
	}
	return m, nil
}

func (m tuiModel) updateFilePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeMain
	case tea.KeyEnter:
		m.mode = modeMain
		path := strings.TrimSpace(m.pathInput)
		if path == "" {
			return m, nil
		}
		return m, do(func(ctx context.Context) error { return m.ctl.SubmitFile(ctx, path) })
	case tea.KeyBackspace:
		if r := []rune(m.pathInput); len(r) > 0 {
			m.pathInput = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.pathInput += " "
	case tea.KeyRunes:
		m.pathInput += string(msg.Runes)
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	left := renderOrb(m.frame, m.audioLevel, m.state) + "\n" + strings.Join(m.infoLines(), "\n")

	rightWidth := max(m.width-orbWidth-1, 20)
	var right string
	switch m.mode {
	case modeDemoPicker:
		right = m.renderDemoPicker()
	case modeFilePrompt:
		right = m.renderFilePrompt()
	default:
		right = m.renderMain(rightWidth - 2)
	}

	leftPanel := lipgloss.NewStyle().Width(orbWidth - 1).Height(m.height).Render(left)
	rightPanel := lipgloss.NewStyle().Width(rightWidth).Height(m.height).PaddingLeft(1).Render(right)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m tuiModel) infoLines() []string {
	var lines []string
	switch m.state {
	case tuiStateRecording:
		lines = append(lines, recStyle.Render(fmt.Sprintf("● REC %ds", m.elapsed)))
		lines = append(lines, renderMeter(m.audioLevel, 20))
	case tuiStateProcessing:
		spin := []string{"◐", "◓", "◑", "◒"}[m.frame/4%4]
		lines = append(lines, busyStyle.Render(spin+" TRANSLATING"))
	default:
		lines = append(lines, dimStyle.Render("○ LISTENING FOR YOU"))
	}
	if m.statusLine != "" {
		lines = append(lines, faintStyle.Render(m.statusLine))
	}
	lines = append(lines, "")

	backend := m.info.backend
	if backend == "" {
		backend = "no backend"
	}
	if m.info.online {
		lines = append(lines, onlineStyle.Render("● online ")+dimStyle.Render(backend))
	} else {
		lines = append(lines, offlineStyle.Render("● offline ")+dimStyle.Render("(demo only)"))
	}
	lines = append(lines, dimStyle.Render("mic: "+m.info.device))
	lines = append(lines, "")

	help := [][2]string{
		{"space", "record"}, {"f", "file"}, {"d", "demos"}, {"h", "history"},
		{"p", "replay"}, {"y", "copy"}, {"c", "clear"}, {"x", "dismiss"}, {"q", "quit"},
	}
	for i := 0; i < len(help); i += 3 {
		var parts []string
		for _, h := range help[i:min(i+3, len(help))] {
			parts = append(parts, keyStyle.Render(h[0])+" "+faintStyle.Render(h[1]))
		}
		lines = append(lines, strings.Join(parts, "  "))
	}
	lines = append(lines, faintStyle.Render("zoolingo "+version))
	return lines
}

func (m tuiModel) renderMain(width int) string {
	var b strings.Builder

	if m.latest == nil {
		b.WriteString(dimStyle.Render("No translations yet. Press space to record or d for a demo."))
		b.WriteString("\n")
	} else {
		r := m.latest
		b.WriteString(titleStyle.Render("Latest translation") + "\n\n")
		b.WriteString(tagStyle.Render(fmt.Sprintf("%s • %s", r.Animal, r.Emotion)))
		if r.Simulated {
			b.WriteString(" " + faintStyle.Render("(simulated)"))
		}
		b.WriteString("\n")
		for _, line := range wrapText(fmt.Sprintf("%q", r.Translation), width) {
			b.WriteString(textStyle.Render(line) + "\n")
		}
		b.WriteString(renderConfidence(r.Confidence, 20) + "\n")
		if r.HasAudio() {
			b.WriteString(dimStyle.Render("♪ spoken reply available (p)") + "\n")
		}
	}

	if len(m.notes) > 0 {
		b.WriteString("\n")
		for _, n := range m.notes {
			style := severityStyles[n.Severity]
			line := severityIcons[n.Severity] + " " + n.Title
			if n.Body != "" {
				line += ": " + n.Body
			}
			for _, l := range wrapText(line, width) {
				b.WriteString(style.Render(l) + "\n")
			}
		}
	}

	if m.showHistory {
		b.WriteString("\n" + titleStyle.Render(fmt.Sprintf("History (%d/%d)", len(m.history), historyLimit)) + "\n")
		if len(m.history) == 0 {
			b.WriteString(dimStyle.Render("empty") + "\n")
		}
		for _, r := range m.history {
			line := fmt.Sprintf("%s  %-8s %-10s %3.0f%%  %s",
				r.CreatedAt.Format("15:04:05"), r.Animal, r.Emotion, r.Confidence*100, r.Translation)
			b.WriteString(dimStyle.Render(truncate(line, width)) + "\n")
		}
	}
	return b.String()
}

func (m tuiModel) renderDemoPicker() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick a demo") + "  " + faintStyle.Render("↑/↓ move  enter play  esc back") + "\n\n")

	start := max(0, min(m.demoCursor-demoRows/2, len(m.demos)-demoRows))
	end := min(start+demoRows, len(m.demos))
	for i := start; i < end; i++ {
		label := m.demos[i].Label()
		if i == m.demoCursor {
			b.WriteString(cursorStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(dimStyle.Render("  "+label) + "\n")
		}
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("\n%d/%d", m.demoCursor+1, len(m.demos))))
	return b.String()
}

func (m tuiModel) renderFilePrompt() string {
	cursor := " "
	if m.frame/8%2 == 0 {
		cursor = "█"
	}
	return titleStyle.Render("Translate an audio file") + "\n\n" +
		"path: " + m.pathInput + cursor + "\n\n" +
		faintStyle.Render("wav, mp3, ogg, flac, m4a or webm up to 10 MB  enter submit  esc back")
}

func renderMeter(level float64, width int) string {
	n := min(int(math.Sqrt(level)*float64(width)*1.5), width)
	return recStyle.Render(strings.Repeat("▮", n)) + faintStyle.Render(strings.Repeat("▯", width-n))
}

func renderConfidence(c float64, width int) string {
	n := int(math.Round(c * float64(width)))
	return tagStyle.Render(strings.Repeat("█", n)) + faintStyle.Render(strings.Repeat("░", width-n)) +
		dimStyle.Render(fmt.Sprintf(" %.0f%% confidence", c*100))
}

var (
	orbPalettes = map[tuiState][]string{
		tuiStateIdle:       {"", "123", "87", "51", "44", "37", "30", "23", "236"},
		tuiStateRecording:  {"", "226", "214", "208", "196", "160", "124", "88", "236"},
		tuiStateProcessing: {"", "230", "229", "221", "214", "178", "136", "94", "236"},
	}
	orbStyles = map[tuiState][]lipgloss.Style{}
)

func init() {
	for state, colors := range orbPalettes {
		styles := make([]lipgloss.Style, len(colors))
		for i, c := range colors {
			if c != "" {
				styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
			}
		}
		orbStyles[state] = styles
	}
}

// renderOrb draws concentric rings with half-block characters (two pixels
// per cell). The rings breathe with the frame counter and swell with the
// input level while recording.
func renderOrb(frame int, level float64, state tuiState) string {
	const charsW = orbWidth - 2
	const charsH = 9
	const pixH = charsH * 2

	var breathe float64
	switch state {
	case tuiStateRecording:
		breathe = math.Sin(float64(frame)*0.10)*0.3 + level*12
	case tuiStateProcessing:
		breathe = math.Sin(float64(frame) * 0.35)
	default:
		breathe = math.Sin(float64(frame)*0.08) * 0.3
	}

	radii := []float64{0.8, 1.6, 2.5, 3.4, 4.3, 5.2, 6.2, 7.4}
	styles := orbStyles[state]
	cx, cy := float64(charsW)/2, float64(pixH)/2

	pixel := func(x, y int) int {
		dx := (float64(x) - cx) / 2 // cells are twice as tall as wide
		dy := float64(y) - cy
		dist := math.Sqrt(dx*dx + dy*dy)
		for i, r := range radii {
			if dist < min(r+breathe*float64(i+1)*0.12, 8.5) {
				return i + 1
			}
		}
		return 0
	}

	var b strings.Builder
	for row := 0; row < charsH; row++ {
		for col := 0; col < charsW; col++ {
			top, bot := pixel(col, row*2), pixel(col, row*2+1)
			switch {
			case top == 0 && bot == 0:
				b.WriteString(" ")
			case top != 0 && (bot == 0 || bot == top):
				if bot == top {
					b.WriteString(styles[top].Render("█"))
				} else {
					b.WriteString(styles[top].Render("▀"))
				}
			default:
				b.WriteString(styles[bot].Render("▄"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	words := strings.Fields(text)
	line := ""
	for _, w := range words {
		switch {
		case line == "":
			line = w
		case len([]rune(line))+1+len([]rune(w)) <= width:
			line += " " + w
		default:
			lines = append(lines, line)
			line = w
		}
		for len([]rune(line)) > width {
			r := []rune(line)
			lines = append(lines, string(r[:width]))
			line = string(r[width:])
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
