package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/csvmaster/internal/core"
	tea "github.com/charmbracelet/bubbletea"
)

// ActionTimeout bounds a single action started from the menu.
var ActionTimeout = 5 * time.Minute

// DefaultPreviewRows is how many rows a result view shows.
const DefaultPreviewRows = 20

// Model is the interactive menu over one session. Actions run as commands
// on a copy of the session, which replaces the model's session once the
// result arrives in Update. Keys are ignored until then.
type Model struct {
	sess        *core.Session
	previewRows int
	push        bool

	menu   *Menu
	cursor int

	prompting *MenuItem
	input     []rune

	busy     bool
	output   string
	err      error
	quitting bool
}

type Option func(*Model)

// WithPreviewRows sets how many rows result views show.
func WithPreviewRows(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.previewRows = n
		}
	}
}

// WithPush adds the database push entry to the export menu.
func WithPush(enabled bool) Option {
	return func(m *Model) { m.push = enabled }
}

func New(sess *core.Session, opts ...Option) Model {
	m := Model{sess: sess, previewRows: DefaultPreviewRows}
	for _, opt := range opts {
		opt(&m)
	}
	m.menu = buildMenuTree(&m)
	return m
}

// Run starts the menu on the terminal and blocks until the user quits.
func Run(sess *core.Session, opts ...Option) error {
	_, err := tea.NewProgram(New(sess, opts...)).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.prompting != nil {
			return m.updatePrompt(msg)
		}
		return m.updateMenu(msg)

	case ResultMsg:
		if msg.Session != nil {
			m.sess = msg.Session
		}
		m.busy = false
		m.err = nil
		m.output = FormatResult(msg.Result, m.previewRows)

	case ErrMsg:
		m.busy = false
		m.err = msg.Err
		m.output = ""
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace", "left", "h":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		return m.choose(m.menu.Items[m.cursor])
	}
	return m, nil
}

func (m Model) choose(item MenuItem) (tea.Model, tea.Cmd) {
	switch {
	case item.Submenu != nil:
		m.menu = item.Submenu
		m.cursor = 0
		return m, nil
	case item.Action != nil:
		if item.Label == "Quit" {
			m.quitting = true
		}
		return m, item.Action()
	case item.Prompt != "":
		m.prompting = &item
		m.input = nil
		return m, nil
	case item.Step != "":
		return m.start(item.Step)
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		step := m.prompting.Step + "=" + string(m.input)
		m.prompting = nil
		m.input = nil
		return m.start(step)
	case tea.KeyEsc:
		m.prompting = nil
		m.input = nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m Model) start(step string) (tea.Model, tea.Cmd) {
	a, err := core.ParseAction(step)
	if err != nil {
		m.err = err
		m.output = ""
		return m, nil
	}
	m.busy = true
	m.err = nil
	m.output = ""
	return m, apply(m.sess.Clone(), a)
}

func apply(sess *core.Session, a core.Action) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ActionTimeout)
		defer cancel()

		res, err := sess.Apply(ctx, a)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrMsg{Err: fmt.Errorf("%s timed out after %v: %w", a.Kind, ActionTimeout, err)}
			}
			return ErrMsg{Err: err}
		}
		return ResultMsg{Result: res, Session: sess}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	cur := m.sess.Current()
	out := m.sess.WriteOptions()
	fmt.Fprintf(&b, "%s  [%s: %d rows, %d columns | output %s, %s]\n\n",
		m.menu.Title, m.sess.Path(), cur.RowCount(), cur.ColumnCount(), out.Encoding, out.Delimiter.Name())

	for i, item := range m.menu.Items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor + item.Label + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.prompting != nil:
		fmt.Fprintf(&b, "%s: %s_\n(enter to run, esc to cancel)\n", m.prompting.Prompt, string(m.input))
	case m.busy:
		b.WriteString("Working...\n")
	case m.err != nil:
		msg := core.MapError(m.err)
		fmt.Fprintf(&b, "Error: %s (Code: %s)\n%s\n%v\n", msg.Message, msg.Code, msg.Action, m.err)
	case m.output != "":
		b.WriteString(m.output)
	default:
		b.WriteString("up/down to move, enter to select, esc to go back, q to quit\n")
	}
	return b.String()
}
