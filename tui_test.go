package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"zoolingo/controller"
	"zoolingo/notify"
	"zoolingo/sound"
	"zoolingo/translator"
)

func TestMain(m *testing.M) {
	sound.Disable()
	os.Exit(m.Run())
}

func newTestModel(t *testing.T) (tuiModel, *controller.Controller, *translator.Fake) {
	t.Helper()
	fake := translator.NewFake(translator.Result{Animal: "Dog", Emotion: "Happy", Translation: "Play with me!", Confidence: 0.9}, nil)
	ctl := controller.New(controller.Config{
		Submitter: fake,
		Notifier:  notify.NewWithClock(time.Hour, notify.Clock{}),
	})
	t.Cleanup(ctl.Close)
	m := newTUIModel(ctl, tuiInfo{backend: "http://localhost:8000", device: "system default"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(tuiModel), ctl, fake
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tuiModel, keys ...string) (tuiModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(tuiModel)
	}
	return m, cmd
}

func TestDemoPickerSubmits(t *testing.T) {
	m, ctl, fake := newTestModel(t)

	m, _ = press(t, m, "d")
	if m.mode != modeDemoPicker {
		t.Fatalf("mode = %v, want demo picker", m.mode)
	}
	if !strings.Contains(m.View(), "Pick a demo") {
		t.Error("picker not rendered")
	}

	m, cmd := press(t, m, "j", "j", "k", "enter")
	if m.mode != modeMain {
		t.Errorf("mode = %v after enter", m.mode)
	}
	if cmd == nil {
		t.Fatal("enter should return a submit command")
	}
	cmd()

	demos := fake.Demos()
	if len(demos) != 1 || demos[0] != m.demos[1] {
		t.Errorf("submitted %v, want %v", demos, m.demos[1])
	}
	if _, ok := ctl.Latest(); !ok {
		t.Error("demo result not recorded")
	}
}

func TestDemoPickerEscape(t *testing.T) {
	m, _, fake := newTestModel(t)
	m, cmd := press(t, m, "d", "j", "esc")
	if m.mode != modeMain || cmd != nil {
		t.Errorf("mode = %v, cmd = %v", m.mode, cmd)
	}
	if len(fake.Demos()) != 0 {
		t.Error("escape should not submit")
	}
}

func TestFilePromptRejectsUnsupported(t *testing.T) {
	m, ctl, fake := newTestModel(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, _ = press(t, m, "f")
	if m.mode != modeFilePrompt {
		t.Fatalf("mode = %v", m.mode)
	}
	m, _ = press(t, m, path+"x", "backspace")
	if m.pathInput != path {
		t.Fatalf("pathInput = %q, want %q", m.pathInput, path)
	}
	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("enter should return a submit command")
	}
	cmd()

	if len(fake.Payloads()) != 0 {
		t.Error("unsupported file reached the submitter")
	}
	found := false
	for _, n := range ctl.Notifications() {
		found = found || n.Title == "Unsupported format"
	}
	if !found {
		t.Errorf("notifications = %+v", ctl.Notifications())
	}
}

func TestRecordWithoutMicrophone(t *testing.T) {
	m, ctl, _ := newTestModel(t)
	_, cmd := press(t, m, " ")
	if cmd == nil {
		t.Fatal("space should return a capture command")
	}
	cmd()
	if ctl.Recording() {
		t.Error("recording without a microphone")
	}
	notes := ctl.Notifications()
	if len(notes) == 0 || notes[len(notes)-1].Title != "Microphone unavailable" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestResultAndNotificationsRender(t *testing.T) {
	m, ctl, _ := newTestModel(t)

	if !strings.Contains(m.View(), "No translations yet") {
		t.Error("placeholder missing")
	}

	r := translator.Result{Animal: "Cat", Emotion: "Hungry", Translation: "Feed me now, servant.", Confidence: 0.97, Simulated: true}
	next, _ := m.Update(ResultMsg{Result: r})
	m = next.(tuiModel)
	next, _ = m.Update(NotificationsMsg{Active: []notify.Notification{{ID: "n1", Severity: notify.Success, Title: "Cat • Hungry"}}})
	m = next.(tuiModel)

	view := m.View()
	for _, want := range []string{"Cat • Hungry", "Feed me now, servant.", "97% confidence", "(simulated)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	// x dismisses the newest notification through the controller.
	ctl.ClearHistory()
	m.notes = ctl.Notifications()
	n := m.notes[len(m.notes)-1]
	_, cmd := press(t, m, "x")
	if cmd == nil {
		t.Fatal("x should return a dismiss command")
	}
	cmd()
	for _, active := range ctl.Notifications() {
		if active.ID == n.ID {
			t.Error("notification not dismissed")
		}
	}
}

func TestHistoryToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	entries := []translator.Result{
		{Animal: "Dog", Emotion: "Sad", Translation: "I miss you.", Confidence: 0.9},
		{Animal: "Cow", Emotion: "Calm", Translation: "I am an animal.", Confidence: 0.88},
	}
	next, _ := m.Update(HistoryMsg{Entries: entries})
	m = next.(tuiModel)

	if strings.Contains(m.View(), "History (") {
		t.Error("history shown before toggle")
	}
	m, _ = press(t, m, "h")
	view := m.View()
	if !strings.Contains(view, "History (2/20)") || !strings.Contains(view, "I miss you.") {
		t.Errorf("history not rendered:\n%s", view)
	}
	m, _ = press(t, m, "h")
	if m.showHistory {
		t.Error("second h should hide history")
	}
}

func TestStateTransitions(t *testing.T) {
	m, _, _ := newTestModel(t)
	steps := []struct {
		msg  tea.Msg
		want tuiState
	}{
		{RecordingStartMsg{}, tuiStateRecording},
		{RecordingTickMsg{Seconds: 3}, tuiStateRecording},
		{RecordingStopMsg{}, tuiStateIdle},
		{ProcessingMsg{Active: true}, tuiStateProcessing},
		{RecordingStopMsg{}, tuiStateProcessing},
		{ProcessingMsg{Active: false}, tuiStateIdle},
	}
	for i, s := range steps {
		next, _ := m.Update(s.msg)
		m = next.(tuiModel)
		if m.state != s.want {
			t.Errorf("step %d (%T): state = %v, want %v", i, s.msg, m.state, s.want)
		}
	}
	if m.elapsed != 3 {
		t.Errorf("elapsed = %d", m.elapsed)
	}
}

func TestBackendStatus(t *testing.T) {
	m, _, _ := newTestModel(t)
	if !strings.Contains(m.View(), "demo only") {
		t.Error("offline backend should advertise demo mode")
	}
	next, _ := m.Update(BackendStatusMsg{Online: true})
	m = next.(tuiModel)
	if !strings.Contains(m.View(), "online") {
		t.Error("online status missing")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestWrapText(t *testing.T) {
	for _, tt := range []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"Play with me!", 20, []string{"Play with me!"}},
		{"This is the best day ever!", 12, []string{"This is the", "best day", "ever!"}},
		{"aaaaaaaaaa", 4, []string{"aaaa", "aaaa", "aa"}},
	} {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestRenderOrbDimensions(t *testing.T) {
	for _, state := range []tuiState{tuiStateIdle, tuiStateRecording, tuiStateProcessing} {
		lines := strings.Split(strings.TrimSuffix(renderOrb(7, 0.1, state), "\n"), "\n")
		if len(lines) != 9 {
			t.Errorf("state %v: %d rows", state, len(lines))
		}
	}
}
