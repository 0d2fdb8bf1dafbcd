package ui

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist-go/internal/api"
	"github.com/nibzard/tasklist-go/internal/form"
	"github.com/nibzard/tasklist-go/internal/store"
	"github.com/nibzard/tasklist-go/internal/testutil"
)

type harness struct {
	t       *testing.T
	backend *testutil.FakeBackend
	store   *store.Store
	form    *form.Controller
	model   *model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	client, err := api.New(backend.URL())
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	list := store.New(client, nil)
	controller := form.New(client, list, nil)
	m, err := newModel(context.Background(), Deps{Store: list, Form: controller, BaseURL: backend.URL()})
	if err != nil {
		t.Fatalf("newModel failed: %v", err)
	}
	return &harness{t: t, backend: backend, store: list, form: controller, model: m}
}

// run feeds msg to the model and executes returned commands synchronously,
// the way the bubbletea runtime would, until none are left.
func (h *harness) run(msg tea.Msg) {
	h.t.Helper()
	_, cmd := h.model.Update(msg)
	h.drain(cmd)
}

func (h *harness) drain(cmd tea.Cmd) {
	h.t.Helper()
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return
		}
		_, cmd = h.model.Update(msg)
	}
}

func (h *harness) init() {
	h.t.Helper()
	h.drain(h.model.Init())
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.run(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	h.run(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) view() string {
	return h.model.View()
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// fillForm types a complete draft, one field per tab stop.
func (h *harness) fillForm(title, description, start, end string) {
	h.t.Helper()
	h.typeText(title)
	h.press("tab")
	h.typeText(description)
	h.press("tab")
	h.typeText(start)
	h.press("tab")
	h.typeText(end)
}

func TestViewLoading(t *testing.T) {
	h := newHarness(t)
	if !strings.Contains(h.view(), "Loading...") {
		t.Errorf("initial view should show the loading state:\n%s", h.view())
	}
}

func TestViewAfterLoad(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		h := newHarness(t)
		h.init()
		out := h.view()
		if !strings.Contains(out, "No tasks yet.") {
			t.Errorf("expected empty state:\n%s", out)
		}
		if strings.Contains(out, "Loading...") {
			t.Errorf("loading indicator should be gone:\n%s", out)
		}
	})

	t.Run("cards", func(t *testing.T) {
		h := newHarness(t)
		h.backend.Seed(
			map[string]any{"title": "Buy milk", "description": "2%", "startingDate": "2024-01-01", "endingDate": "2024-01-02"},
			map[string]any{"title": "Call mom", "description": "Sunday"},
			map[string]any{"title": "File taxes", "description": "Before April"},
		)
		h.init()

		out := h.view()
		for _, want := range []string{"Buy milk", "2%", "2024-01-01 to 2024-01-02", "Call mom", "Sunday", "File taxes"} {
			if !strings.Contains(out, want) {
				t.Errorf("view missing %q:\n%s", want, out)
			}
		}
		if strings.Index(out, "Buy milk") > strings.Index(out, "File taxes") {
			t.Error("cards should keep list order")
		}
	})

	t.Run("load error replaces the list", func(t *testing.T) {
		h := newHarness(t)
		h.backend.FailList(http.StatusInternalServerError)
		h.init()

		out := h.view()
		if !strings.Contains(out, "Error loading tasks:") {
			t.Errorf("expected error state:\n%s", out)
		}
		if strings.Contains(out, "No tasks yet.") || strings.Contains(out, "Loading...") {
			t.Errorf("error state should replace the list:\n%s", out)
		}
	})
}

func TestAddTaskFlow(t *testing.T) {
	h := newHarness(t)
	h.init()

	h.press("a")
	if !h.model.modalOpen {
		t.Fatal("a should open the add form")
	}
	out := h.view()
	for _, want := range []string{"Add Task", "Title is required", "Description is required"} {
		if !strings.Contains(out, want) {
			t.Errorf("modal missing %q:\n%s", want, out)
		}
	}

	h.fillForm("Buy milk", "2%", "2024-01-01", "2024-01-02")
	h.press("enter")

	posts := h.backend.RequestsTo(http.MethodPost, api.PathAdd)
	if len(posts) != 1 {
		t.Fatalf("got %d POST /add, want 1", len(posts))
	}
	want := `{"title":"Buy milk","description":"2%","startingDate":"2024-01-01","endingDate":"2024-01-02"}`
	if string(posts[0].Body) != want {
		t.Errorf("POST body = %s, want %s", posts[0].Body, want)
	}
	if h.model.modalOpen {
		t.Error("modal should close after a successful save")
	}
	if h.store.Len() != 1 {
		t.Errorf("store has %d tasks, want 1", h.store.Len())
	}
	if !h.form.Draft().IsEmpty() {
		t.Errorf("draft should be reset: %+v", h.form.Draft())
	}
	if !strings.Contains(h.view(), "Buy milk") {
		t.Errorf("new task should show in the list:\n%s", h.view())
	}
}

func TestSubmitIncompleteForm(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.press("a")
	h.typeText("Only a title")
	h.press("ctrl+s")

	if n := len(h.backend.RequestsTo(http.MethodPost, api.PathAdd)); n != 0 {
		t.Fatalf("incomplete form made %d POST calls", n)
	}
	if !h.model.modalOpen {
		t.Fatal("modal should stay open")
	}
	out := h.view()
	if !strings.Contains(out, "All fields are required.") {
		t.Errorf("expected validation message:\n%s", out)
	}
	if strings.Contains(out, "Title is required") {
		t.Errorf("filled field should not show its hint:\n%s", out)
	}
}

func TestEnterMovesToNextField(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.press("a", "enter", "enter")
	if h.model.focus != 2 {
		t.Errorf("focus = %d, want 2", h.model.focus)
	}
	h.press("shift+tab")
	if h.model.focus != 1 {
		t.Errorf("focus = %d, want 1", h.model.focus)
	}
	if n := len(h.backend.Requests()); n != 1 {
		t.Errorf("enter on early fields must not submit, saw %d requests", n)
	}
}

func TestTypingShortcutLettersInForm(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.press("a")
	h.press("q", "r", "a")
	h.press("space")
	h.press("?")

	if got := h.form.Draft().Title; got != "qra ?" {
		t.Errorf("Title = %q, want %q", got, "qra ?")
	}
	h.press("backspace", "backspace")
	if got := h.form.Draft().Title; got != "qra" {
		t.Errorf("Title after backspace = %q, want qra", got)
	}
}

func TestPartialDate(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.press("a", "tab", "tab")
	h.typeText("2024-0")

	if !h.form.Draft().StartingDate.IsZero() {
		t.Error("half-typed date should not be set")
	}
	if !strings.Contains(h.view(), "Use the YYYY-MM-DD format") {
		t.Errorf("expected format hint:\n%s", h.view())
	}

	h.typeText("3-09")
	if got := h.form.Draft().StartingDate.String(); got != "2024-03-09" {
		t.Errorf("StartingDate = %q, want 2024-03-09", got)
	}
}

func TestSubmitFailureKeepsModal(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.backend.FailAdd(http.StatusInternalServerError)

	h.press("a")
	h.fillForm("Buy milk", "2%", "2024-01-01", "2024-01-02")
	h.press("ctrl+s")

	if !h.model.modalOpen {
		t.Fatal("modal should stay open after a failed save")
	}
	if h.form.State() != form.StateFailed {
		t.Errorf("State = %s, want failed", h.form.State())
	}
	if !strings.Contains(h.view(), "Could not save task:") {
		t.Errorf("submit error should be shown:\n%s", h.view())
	}
	if h.store.Len() != 0 {
		t.Error("failed save must not append")
	}

	// The draft survives; a retry goes through once the backend recovers.
	h.backend.FailAdd(0)
	h.press("ctrl+s")
	if h.model.modalOpen || h.store.Len() != 1 {
		t.Errorf("retry should save: modalOpen=%v len=%d", h.model.modalOpen, h.store.Len())
	}
}

func TestSubmitWhileSaving(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.press("a")
	h.fillForm("Buy milk", "2%", "2024-01-01", "2024-01-02")

	// Hold the create call: take the command without running it.
	_, cmd := h.model.Update(keyMsg("ctrl+s"))
	if cmd == nil {
		t.Fatal("ctrl+s should start a create call")
	}
	if !strings.Contains(h.view(), "Saving...") {
		t.Errorf("expected saving indicator:\n%s", h.view())
	}

	_, again := h.model.Update(keyMsg("ctrl+s"))
	if again != nil {
		t.Error("second submit while saving should not start another call")
	}
	_, esc := h.model.Update(keyMsg("esc"))
	if esc != nil || !h.model.modalOpen {
		t.Error("esc while saving should be ignored")
	}
	h.typeText("ignored")
	if h.form.Draft().EndingDate.String() != "2024-01-02" {
		t.Error("typing while saving should not edit the draft")
	}

	h.drain(cmd)
	if n := len(h.backend.RequestsTo(http.MethodPost, api.PathAdd)); n != 1 {
		t.Errorf("got %d POST /add, want exactly 1", n)
	}
	if h.store.Len() != 1 {
		t.Errorf("store has %d tasks, want 1", h.store.Len())
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.press("a")
	h.typeText("Throwaway")
	h.press("ctrl+s")
	h.press("esc")

	if h.model.modalOpen {
		t.Error("esc should close the modal")
	}
	if !h.form.Draft().IsEmpty() || h.form.ValidationMessage() != "" {
		t.Error("cancel should clear the draft and the validation message")
	}
	h.press("a")
	if strings.Contains(h.view(), "Throwaway") {
		t.Errorf("reopened form should be empty:\n%s", h.view())
	}
}

func TestReload(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.backend.Seed(map[string]any{"title": "Added elsewhere", "description": "by another client"})

	h.press("r")
	if !strings.Contains(h.view(), "Added elsewhere") {
		t.Errorf("reload should fetch new tasks:\n%s", h.view())
	}
	if n := len(h.backend.RequestsTo(http.MethodGet, api.PathList)); n != 2 {
		t.Errorf("got %d GET /todo, want 2", n)
	}
}

func TestAddWaitsForLoad(t *testing.T) {
	h := newHarness(t)

	h.press("a")
	if h.model.modalOpen {
		t.Fatal("modal should stay closed while the list is loading")
	}
	if !strings.Contains(h.view(), noticeStillLoading) {
		t.Errorf("view should explain why the modal did not open:\n%s", h.view())
	}

	h.init()
	if strings.Contains(h.view(), noticeStillLoading) {
		t.Errorf("notice should clear once the list is loaded:\n%s", h.view())
	}

	h.press("a")
	if !h.model.modalOpen {
		t.Fatal("modal should open after the load finished")
	}
	h.fillForm("Buy milk", "2%", "2024-01-01", "2024-01-02")
	h.press("enter")
	if h.store.Len() != 1 {
		t.Errorf("store has %d tasks, want 1", h.store.Len())
	}
}

func TestHelpAndQuit(t *testing.T) {
	h := newHarness(t)
	h.init()

	h.press("?")
	if !strings.Contains(h.view(), "Keyboard Shortcuts") {
		t.Errorf("expected help screen:\n%s", h.view())
	}
	h.press("?")
	if strings.Contains(h.view(), "Keyboard Shortcuts") {
		t.Error("? should toggle help off")
	}

	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := h.model.Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should return tea.Quit", k)
		}
	}
}

func TestWindowSizeNarrow(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed(map[string]any{"title": "A", "description": "x"}, map[string]any{"title": "B", "description": "y"})
	h.init()
	h.run(tea.WindowSizeMsg{Width: 10, Height: 20})
	if !strings.Contains(h.view(), "B") {
		t.Errorf("narrow terminals still render cards:\n%s", h.view())
	}
}

func TestNewModelRequiresDeps(t *testing.T) {
	if _, err := newModel(context.Background(), Deps{}); err == nil {
		t.Error("newModel without store and form should fail")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
