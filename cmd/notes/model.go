package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notesapp/internal/client"
	"notesapp/internal/note/model"
	"notesapp/socket"
)

type (
	loadedMsg      struct{ err error }
	submittedMsg   struct{ err error }
	deletedMsg     struct{ err error }
	eventMsg       struct{ ev socket.Event }
	streamEndedMsg struct{ err error }
)

type Model struct {
	ctx    context.Context
	api    *client.API
	view   *client.NotesView
	store  client.TokenStore
	events chan socket.Event

	// stream scopes the live-update subscription; logout cancels it.
	stream     context.Context
	stopStream context.CancelFunc

	composer client.Composer
	input    textinput.Model
	help     help.Model
	keys     KeyMap

	cursor int
	status string
}

func NewModel(ctx context.Context, api *client.API, session client.Session, store client.TokenStore) Model {
	ti := textinput.New()
	ti.Placeholder = "Add a new note"
	ti.CharLimit = model.MaxTextLength
	ti.Focus()

	stream, stop := context.WithCancel(ctx)

	return Model{
		ctx:        ctx,
		api:        api,
		view:       client.NewNotesView(api, session),
		store:      store,
		events:     make(chan socket.Event),
		stream:     stream,
		stopStream: stop,
		input:      ti,
		help:       help.New(),
		keys:       DefaultKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load(), m.listen(), m.nextEvent())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-4, 10)
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg, submittedMsg, deletedMsg:
		m.clampCursor()
		return m, nil

	case eventMsg:
		m.view.Apply(msg.ev)
		m.clampCursor()
		return m, m.nextEvent()

	case streamEndedMsg:
		if msg.err != nil {
			m.status = "live updates stopped: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}

		if !m.view.Session().LoggedIn() {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Submit):
			var cmd tea.Cmd
			m.composer.SetText(m.input.Value())
			m.composer.Submit(func(text string) { cmd = m.submit(text) })
			m.input.SetValue(m.composer.Text())
			return m, cmd

		case key.Matches(msg, m.keys.Up):
			m.cursor = max(m.cursor-1, 0)
			return m, nil

		case key.Matches(msg, m.keys.Down):
			m.cursor++
			m.clampCursor()
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			note, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, m.delete(note.ID)

		case key.Matches(msg, m.keys.Sort):
			m.view.ToggleOrder()
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()

		case key.Matches(msg, m.keys.Logout):
			nav := client.NavBar{Session: m.view.Session()}
			session, err := nav.Logout(m.store.Clear)
			m.view.SetSession(session)
			m.stopStream()
			m.status = "logged out"
			if err != nil {
				m.status = "logged out, but the token could not be removed: " + err.Error()
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// selected returns the note under the cursor. Commands change the list in
// the background, so the cursor is clamped against the current list first.
func (m *Model) selected() (model.Note, bool) {
	notes := m.view.Sorted()
	m.clampTo(len(notes))
	if len(notes) == 0 {
		return model.Note{}, false
	}
	return notes[m.cursor], true
}

func (m *Model) clampCursor() {
	m.clampTo(len(m.view.Sorted()))
}

func (m *Model) clampTo(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.view.Load(m.ctx)}
	}
}

func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.view.Submit(m.ctx, text)
		return submittedMsg{err: err}
	}
}

func (m Model) delete(id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{err: m.view.Delete(m.ctx, id)}
	}
}

func (m Model) listen() tea.Cmd {
	token := m.view.Session().Token
	return func() tea.Msg {
		err := m.api.Subscribe(m.stream, token, func(ev socket.Event) {
			select {
			case m.events <- ev:
			case <-m.stream.Done():
			}
		})
		return streamEndedMsg{err: err}
	}
}

func (m Model) nextEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return eventMsg{ev: ev}
		case <-m.stream.Done():
			return nil
		}
	}
}

// ---------- rendering ----------

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	navStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	border      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

func (m Model) View() string {
	session := m.view.Session()
	nav := client.NavBar{Session: session}
	header := titleStyle.Render("notes") + " " + blurStyle.Render("•") + " " + navStyle.Render(nav.Greeting())

	if !session.LoggedIn() {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", statusStyle.Render(m.status), blurStyle.Render("esc to quit"))
	}

	state := m.view.State()

	var form strings.Builder
	form.WriteString(titleStyle.Render("Add Note:") + "\n")
	form.WriteString(m.input.View())
	if state.Status == client.StatusLoading {
		form.WriteString("\n" + blurStyle.Render("saving..."))
	}
	if state.Error != "" {
		form.WriteString("\n" + errorStyle.Render(state.Error))
	}

	order := "Ascending"
	if state.Order == client.OrderDesc {
		order = "Descending"
	}

	var list strings.Builder
	list.WriteString(titleStyle.Render("Previous Notes:") + " " + blurStyle.Render("Sort ("+order+")") + "\n")
	switch {
	case state.FetchError != "":
		list.WriteString(errorStyle.Render("could not load notes: " + state.FetchError))
	case len(state.Notes) == 0:
		list.WriteString(blurStyle.Render("No notes yet"))
	default:
		for i, n := range state.Notes {
			line := fmt.Sprintf("%s - %s", n.Text, n.CreatedAt.Local().Format("2006-01-02 15:04"))
			if i == m.cursor {
				list.WriteString(cursorStyle.Render("> " + line))
			} else {
				list.WriteString("  " + line)
			}
			if i < len(state.Notes)-1 {
				list.WriteString("\n")
			}
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		border.Render(form.String()),
		border.Render(list.String()),
	)
	if m.status != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, statusStyle.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.help.View(m.keys))
}
