// Package tui is the terminal front end: the player reads scenes and picks
// choices by number, and slash commands drive the story editor.
package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/mystic-stories/internal/authoring"
	"github.com/tatianab/mystic-stories/internal/engine"
	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/notify"
)

const (
	defaultPDFName = "mystic-stories.pdf"
	draftTimeout   = 90 * time.Second
	toastTick      = 200 * time.Millisecond
)

type sessionState int

const (
	statePlaying sessionState = iota
	stateScenes
	stateDrafting
)

type model struct {
	state     sessionState
	engine    *engine.Engine
	panel     *authoring.Panel
	toasts    *notify.Center
	now       func() time.Time
	textInput textinput.Model
	viewport  viewport.Model
	width     int
	height    int

	scenes      []authoring.SceneSummary
	sceneFilter string
}

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(eng *engine.Engine, panel *authoring.Panel, toasts *notify.Center) model {
	ti := textinput.New()
	ti.Placeholder = "Номер выбора или /команда..."
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	return model{
		state:     statePlaying,
		engine:    eng,
		panel:     panel,
		toasts:    toasts,
		now:       time.Now,
		textInput: ti,
		viewport:  viewport.New(60, 20),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

type tickMsg time.Time

type importedMsg struct {
	path string
	data []byte
	err  error
}

type draftedMsg struct {
	id   string
	node models.Node
	err  error
}

func tick() tea.Cmd {
	return tea.Tick(toastTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			if m.state == stateScenes {
				m.state = statePlaying
				m.refresh()
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		case tea.KeyEnter:
			if m.state == stateDrafting {
				return m, nil
			}
			line := m.textInput.Value()
			m.textInput.Reset()
			next, cmd := m.handleLine(line)
			next.refresh()
			return next, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.65)
		m.viewport.Height = msg.Height - 8
		m.textInput.Width = msg.Width - 4
		m.refresh()
		return m, nil

	case tickMsg:
		return m, tick()

	case importedMsg:
		if msg.err != nil {
			m.toasts.Show(fmt.Sprintf("Не удалось прочитать %s", msg.path), notify.Warning)
			return m, nil
		}
		// The panel reports the outcome.
		_ = m.panel.Import(msg.data)
		m.state = statePlaying
		m.refresh()
		return m, nil

	case draftedMsg:
		m.state = statePlaying
		switch {
		case errors.Is(msg.err, authoring.ErrNoDrafter):
			m.toasts.Show("Черновики сцен недоступны: задайте GEMINI_API_KEY", notify.Warning)
		case msg.err == nil:
			m.panel.SaveDraft(msg.id, msg.node)
		}
		m.refresh()
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// handleLine routes one submitted input line.
func (m model) handleLine(line string) (model, tea.Cmd) {
	if cmd, ok := parseCommand(line); ok {
		return m.runCommand(cmd)
	}
	if line == "" {
		return m, nil
	}
	i, ok := parseChoice(line)
	if !ok {
		m.toasts.Show("Введите номер выбора или команду", notify.Warning)
		return m, nil
	}
	m.state = statePlaying
	m.choose(i)
	return m, nil
}

// choose picks the i-th (0-based) option of the current scene.
func (m model) choose(i int) {
	node, ok := m.engine.GetNode(m.engine.CurrentNode())
	if !ok {
		return
	}
	if m.engine.IsEnding(node) {
		if i == 0 {
			m.engine.ResetState()
		}
		return
	}
	if i >= len(node.Options) {
		m.toasts.Show("Такого выбора нет", notify.Warning)
		return
	}
	opt := node.Options[i]
	if !m.engine.CanUseOption(opt) {
		m.toasts.Show("Требования не выполнены", notify.Warning)
		return
	}
	m.engine.ApplyOption(&opt)
}

func (m model) runCommand(c command) (model, tea.Cmd) {
	m.state = statePlaying

	switch c.name {
	case "quit":
		return m, tea.Quit

	case "restart":
		m.engine.ResetState()
		m.toasts.Show("История начата заново", notify.Info)

	case "scene":
		_ = m.panel.SaveScene(c.arg(0), c.arg(1), c.arg(2))

	case "edit":
		node, err := m.panel.LoadScene(c.arg(0))
		if err != nil {
			return m, nil
		}
		m.textInput.SetValue(fmt.Sprintf("/scene %s | %s | %s", node.ID, node.Title, node.Text))
		m.textInput.CursorEnd()

	case "choice":
		_ = m.panel.AddChoice(authoring.ChoiceInput{
			From:        c.arg(0),
			Text:        c.arg(1),
			To:          c.arg(2),
			StatChanges: c.arg(3),
			Inventory:   c.arg(4),
		})

	case "scenes":
		m.sceneFilter = c.arg(0)
		m.scenes = m.panel.Scenes(m.sceneFilter)
		m.state = stateScenes

	case "export":
		path := c.arg(0)
		if path == "" {
			path = m.panel.ExportFileName()
		}
		data, err := m.panel.Export()
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			m.toasts.Show(fmt.Sprintf("Не удалось сохранить %s", path), notify.Warning)
		} else {
			m.toasts.Show("История экспортирована", notify.Info)
		}

	case "import":
		path := c.arg(0)
		if path == "" {
			m.toasts.Show("Укажите файл для импорта", notify.Warning)
			return m, nil
		}
		return m, readStory(path)

	case "pdf":
		path := c.arg(0)
		if path == "" {
			path = defaultPDFName
		}
		// The panel reports rendering failures itself.
		switch err := m.writePDF(path); {
		case err == nil:
			m.toasts.Show("Книга истории сохранена", notify.Info)
		case !errors.Is(err, authoring.ErrRender):
			m.toasts.Show(fmt.Sprintf("Не удалось сохранить %s", path), notify.Warning)
		}

	case "reset-story":
		m.panel.ResetStory()

	case "draft":
		m.state = stateDrafting
		return m, m.draftScene(c.arg(0), c.arg(1))

	default:
		m.toasts.Show(fmt.Sprintf("Неизвестная команда /%s", c.name), notify.Warning)
	}
	return m, nil
}

// writePDF renders the storybook in memory and writes path only when
// rendering succeeds, so a failed render leaves no file behind.
func (m model) writePDF(path string) error {
	var buf bytes.Buffer
	if err := m.panel.ExportPDF(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func readStory(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		return importedMsg{path: path, data: data, err: err}
	}
}

// draftScene runs the drafter against a snapshot of the story; the result is
// saved when the message comes back to Update.
func (m model) draftScene(id, hint string) tea.Cmd {
	doc := m.engine.Story()
	panel := m.panel
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), draftTimeout)
		defer cancel()
		node, err := panel.RequestDraft(ctx, doc, id, hint)
		return draftedMsg{id: id, node: node, err: err}
	}
}

// refresh re-renders the viewport content.
func (m *model) refresh() {
	switch m.state {
	case stateScenes:
		m.viewport.SetContent(renderSceneList(m.scenes, m.sceneFilter, m.viewport.Width))
	default:
		m.viewport.SetContent(m.renderScene(m.viewport.Width))
	}
	m.viewport.GotoTop()
}

func (m model) View() string {
	stateWidth := int(float64(m.width) * 0.30)
	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.renderState(stateWidth),
	)

	status := renderToasts(m.toasts.Active(), m.now)
	if m.state == stateDrafting {
		status = helpStyle.Render("Сочиняем сцену... подождите.") + "\n" + status
	}

	help := helpStyle.Render("Выбор: номер. Команды: /restart /scenes /scene /edit /choice /draft /export /import /pdf /reset-story /quit")
	if m.state == stateScenes {
		help = helpStyle.Render("Esc: вернуться к сцене. /scenes <запрос> фильтрует список.")
	}

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		status,
		m.textInput.View(),
		help,
	) + "\n"
}

// Run starts the terminal UI and blocks until the player quits.
func Run(eng *engine.Engine, panel *authoring.Panel, toasts *notify.Center) error {
	m := NewModel(eng, panel, toasts)
	m.refresh()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
