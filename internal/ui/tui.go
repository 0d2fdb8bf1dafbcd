// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/form"
	"github.com/nibzard/tasklist-go/internal/store"
	"github.com/nibzard/tasklist-go/internal/task"
)

const noticeStillLoading = "Still loading tasks; try again once the list is shown."

// Deps are the collaborators the TUI works with. Store and Form are required.
type Deps struct {
	Store   *store.Store
	Form    *form.Controller
	Logger  *log.Logger
	BaseURL string
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model, err := newModel(ctx, deps)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

type model struct {
	ctx     context.Context
	store   *store.Store
	form    *form.Controller
	logger  *log.Logger
	baseURL string

	width    int
	showHelp bool
	notice   string

	modalOpen bool
	focus     int
	// inputs holds the raw text of each field, so a half-typed date survives
	// until it parses.
	inputs [4]string
}

// loadedMsg reports the end of a store load.
type loadedMsg struct {
	err error
}

// createdMsg carries the result of a create call started by submit.
type createdMsg struct {
	task task.Task
	err  error
}

func newModel(ctx context.Context, deps Deps) (*model, error) {
	if deps.Store == nil || deps.Form == nil {
		return nil, errors.New("tui: store and form are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &model{
		ctx:     ctx,
		store:   deps.Store,
		form:    deps.Form,
		logger:  logger,
		baseURL: deps.BaseURL,
		width:   80,
	}, nil
}

func (m *model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m *model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.store.Load(m.ctx)}
	}
}

func (m *model) createCmd(draft task.Draft) tea.Cmd {
	return func() tea.Msg {
		created, err := m.form.Create(m.ctx, draft)
		return createdMsg{task: created, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case loadedMsg:
		if msg.err != nil {
			m.logger.Warn("list not loaded", "err", msg.err)
		}
		if m.notice == noticeStillLoading {
			m.notice = ""
		}
		return m, nil
	case createdMsg:
		if err := m.form.Finish(msg.task, msg.err); err != nil {
			return m, nil
		}
		m.closeModal()
		m.notice = fmt.Sprintf("Added %q.", msg.task.Title)
		return m, nil
	case tea.KeyMsg:
		if m.modalOpen {
			return m, m.updateModal(msg)
		}
		return m, m.updateList(msg)
	}
	return m, nil
}

func (m *model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "a", "n":
		// A load that finishes after a submit would replace the list
		// and drop the task just added.
		if m.store.IsLoading() {
			m.notice = noticeStillLoading
			return nil
		}
		m.openModal()
	case "r", "f5":
		if m.store.IsLoading() {
			return nil
		}
		m.notice = ""
		return m.loadCmd()
	case "h", "?":
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *model) updateModal(msg tea.KeyMsg) tea.Cmd {
	// Typed text never triggers a shortcut, even when it reads like one.
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		if m.form.Submitting() || msg.Alt {
			return nil
		}
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		m.setInput(m.inputs[m.focus] + text)
		return nil
	}

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		if m.form.Submitting() {
			return nil
		}
		m.form.Reset()
		m.closeModal()
		return nil
	case "tab", "down":
		m.focus = (m.focus + 1) % len(task.Fields)
		return nil
	case "shift+tab", "up":
		m.focus = (m.focus + len(task.Fields) - 1) % len(task.Fields)
		return nil
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == len(task.Fields)-1 {
			return m.submit()
		}
		m.focus++
		return nil
	case "backspace":
		if m.form.Submitting() {
			return nil
		}
		runes := []rune(m.inputs[m.focus])
		if len(runes) > 0 {
			m.setInput(string(runes[:len(runes)-1]))
		}
		return nil
	case "ctrl+u":
		if !m.form.Submitting() {
			m.setInput("")
		}
		return nil
	}
	return nil
}

// submit claims the in-flight slot and starts the create call. Validation
// failures and repeated submits are absorbed here; the view shows why.
func (m *model) submit() tea.Cmd {
	draft, err := m.form.Begin()
	if err != nil {
		if errors.Is(err, form.ErrSubmitInFlight) {
			m.logger.Debug("submit ignored, already saving")
		}
		return nil
	}
	return m.createCmd(draft)
}

// setInput stores the raw text of the focused field and pushes it into the
// draft. A date that does not parse yet leaves the draft date unset.
func (m *model) setInput(value string) {
	m.inputs[m.focus] = value
	field := task.Fields[m.focus]

	var v any = value
	if isDateField(field) {
		d, err := task.ParseDate(strings.TrimSpace(value))
		if err != nil {
			v = ""
		} else {
			v = d
		}
	}
	if err := m.form.SetField(field, v); err != nil {
		m.logger.Debug("field not set", "field", field, "err", err)
	}
}

func (m *model) openModal() {
	m.modalOpen = true
	m.notice = ""
	m.focus = 0
	draft := m.form.Draft()
	for i, field := range task.Fields {
		m.inputs[i] = draft.Value(field)
	}
}

func (m *model) closeModal() {
	m.modalOpen = false
	m.focus = 0
	m.inputs = [4]string{}
}

func isDateField(field string) bool {
	return field == task.FieldStartingDate || field == task.FieldEndingDate
}

func (m *model) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.modalOpen)
		return b.String()
	}

	if m.modalOpen {
		b.WriteString(m.renderModal())
		b.WriteString("\n\n")
		writeFooter(&b, true)
		return b.String()
	}

	snap := m.store.Snapshot()
	switch {
	case snap.IsLoading:
		b.WriteString("Loading...\n\n")
	case snap.LastError != nil:
		b.WriteString("Error loading tasks: " + snap.LastError.Error() + "\n\n")
	case len(snap.Items) == 0:
		b.WriteString("No tasks yet.\n\n")
	default:
		b.WriteString(renderGrid(snap.Items, m.width))
		b.WriteString("\n\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n\n")
	}
	if m.baseURL != "" {
		b.WriteString(dimStyle.Render("Backend: "+m.baseURL) + "\n")
	}
	writeFooter(&b, false)
	return b.String()
}

func (m *model) renderModal() string {
	draft := m.form.Draft()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Add Task") + "\n\n")
	for i, field := range task.Fields {
		label := task.Label(field)
		if isDateField(field) {
			label += " (YYYY-MM-DD)"
		}
		value := m.inputs[i]
		if i == m.focus {
			b.WriteString(focusStyle.Render("> "+label) + "\n")
			value += "_"
		} else {
			b.WriteString("  " + label + "\n")
		}
		b.WriteString("  " + value + "\n")

		switch {
		case isDateField(field) && strings.TrimSpace(m.inputs[i]) != "" && draft.Hint(field) != "":
			b.WriteString(hintStyle.Render("  Use the YYYY-MM-DD format") + "\n")
		case draft.Hint(field) != "":
			b.WriteString(hintStyle.Render("  "+draft.Hint(field)) + "\n")
		}
		b.WriteString("\n")
	}

	if msg := m.form.ValidationMessage(); msg != "" {
		b.WriteString(errorStyle.Render(msg) + "\n")
	}
	if err := m.form.SubmitError(); err != nil {
		b.WriteString(errorStyle.Render("Could not save task: "+err.Error()) + "\n")
	}
	if m.form.Submitting() {
		b.WriteString("Saving...\n")
	} else {
		b.WriteString("[ctrl+s] Save   [esc] Cancel\n")
	}

	return modalStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func writeTitle(b *strings.Builder) {
	title := "Task List"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a, n            Add a task\n")
	b.WriteString("  r, F5           Reload the list\n")
	b.WriteString("  h, ?            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c       Quit\n\n")
	b.WriteString("In the add form\n\n")
	b.WriteString("  tab, shift+tab  Move between fields\n")
	b.WriteString("  enter           Next field, or save on the last one\n")
	b.WriteString("  ctrl+s          Save\n")
	b.WriteString("  ctrl+u          Clear the field\n")
	b.WriteString("  esc             Cancel and discard the draft\n\n")
}

func writeFooter(b *strings.Builder, modal bool) {
	if modal {
		b.WriteString("tab next field | ctrl+s save | esc cancel\n")
		return
	}
	b.WriteString("Press a to add | r to reload | ? for help | q to quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
